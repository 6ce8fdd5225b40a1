package sketchreel_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/recorder/recordertest"
	"github.com/bft-labs/sketchreel/pkg/sketchreel"
)

type staticImages struct {
	imgs []image.Image
	err  error
}

func (s staticImages) Images(ctx context.Context) ([]image.Image, error) {
	return s.imgs, s.err
}

type memStore struct {
	mu    sync.Mutex
	saved []sketchreel.Artifact
}

func (m *memStore) Save(ctx context.Context, a sketchreel.Artifact) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, a)
	return "mem://" + a.Name, nil
}

func (m *memStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type recordingHandler struct {
	sketchreel.BaseEventHandler

	mu        sync.Mutex
	states    []sketchreel.State
	warnings  []error
	artifacts []sketchreel.ArtifactEvent
}

func (h *recordingHandler) OnStateChange(e sketchreel.StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, e.Current)
}

func (h *recordingHandler) OnWarning(e sketchreel.WarningEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.warnings = append(h.warnings, e.Err)
}

func (h *recordingHandler) OnArtifact(e sketchreel.ArtifactEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.artifacts = append(h.artifacts, e)
}

func (h *recordingHandler) snapshot() ([]sketchreel.State, []error, []sketchreel.ArtifactEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]sketchreel.State(nil), h.states...),
		append([]error(nil), h.warnings...),
		append([]sketchreel.ArtifactEvent(nil), h.artifacts...)
}

type recordingPlugin struct {
	name    string
	initErr error
	log     *[]string
	mu      *sync.Mutex
	cfg     sketchreel.PluginConfig
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) Initialize(ctx context.Context, cfg sketchreel.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.log = append(*p.log, "init "+p.name)
	p.cfg = cfg
	return p.initErr
}

func (p *recordingPlugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.log = append(*p.log, "shutdown "+p.name)
	return nil
}

// halves returns an image with a dark left half and a light right half.
func halves(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255)
			if x < w/2 {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func testConfig() sketchreel.Config {
	cfg := sketchreel.DefaultConfig()
	cfg.Narration = "Two quick sketches."
	cfg.TickRate = 500
	cfg.Settings.Speed = 10
	cfg.Settings.HoldDuration = 30 * time.Millisecond
	cfg.Video = sketchreel.VideoConfig{Width: 16, Height: 12, FrameRate: 100, Timeslice: 10 * time.Millisecond}
	return cfg
}

func newTestReel(t *testing.T, cfg sketchreel.Config, opts ...sketchreel.Option) *sketchreel.Reel {
	t.Helper()
	r, err := sketchreel.New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.Close(ctx)
	})
	return r
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sketchreel.Config)
	}{
		{"missing narration", func(c *sketchreel.Config) { c.Narration = "  " }},
		{"unknown voice", func(c *sketchreel.Config) { c.Voice = "Nobody" }},
		{"bad sequencer", func(c *sketchreel.Config) { c.Sequencer = "spiral" }},
		{"speed out of range", func(c *sketchreel.Config) { c.Settings.Speed = 99 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := sketchreel.New(cfg); !errors.Is(err, sketchreel.ErrInvalidInput) {
				t.Errorf("New() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	var cfg sketchreel.Config
	cfg.SetDefaults()

	if cfg.Settings != sketchreel.DefaultSettings() {
		t.Errorf("Settings = %+v, want defaults", cfg.Settings)
	}
	if cfg.Video.Width != 800 || cfg.Video.Height != 600 {
		t.Errorf("Video = %dx%d, want 800x600", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Voice != domain.DefaultVoice {
		t.Errorf("Voice = %q, want %q", cfg.Voice, domain.DefaultVoice)
	}
	if cfg.Sequencer != "grid" {
		t.Errorf("Sequencer = %q, want grid", cfg.Sequencer)
	}
	if cfg.Record {
		t.Error("SetDefaults should not enable recording")
	}
	if !sketchreel.DefaultConfig().Record {
		t.Error("DefaultConfig should enable recording")
	}
}

func TestReel_FullRun(t *testing.T) {
	enc := &recordertest.Encoder{}
	store := &memStore{}
	handler := &recordingHandler{}
	r := newTestReel(t, testConfig(),
		sketchreel.WithImageSource(staticImages{imgs: []image.Image{halves(24, 24), halves(24, 24)}}),
		sketchreel.WithEncoder(enc),
		sketchreel.WithArtifactStore(store),
		sketchreel.WithNarrator(nil),
		sketchreel.WithEventHandler(handler),
	)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case <-r.Completed():
	case <-time.After(10 * time.Second):
		t.Fatalf("session did not complete, status %+v", r.Status())
	}

	st := r.Status()
	if st.State != sketchreel.StateComplete || st.OverallProgress != 100 {
		t.Errorf("Status() = %+v, want Complete at 100", st)
	}
	if store.Len() != 1 {
		t.Errorf("saved %d artifacts, want 1", store.Len())
	}

	states, warnings, artifacts := handler.snapshot()
	if len(artifacts) != 1 || artifacts[0].Size == 0 {
		t.Errorf("artifacts = %+v, want one non-empty", artifacts)
	}
	if len(warnings) == 0 || !errors.Is(warnings[0], sketchreel.ErrResourceUnavailable) {
		t.Errorf("warnings = %v, want narration unavailable", warnings)
	}
	if len(states) == 0 || states[len(states)-1] != sketchreel.StateComplete {
		t.Errorf("states = %v, want to end in Complete", states)
	}
}

func TestReel_CompletedResetsOnRestart(t *testing.T) {
	r := newTestReel(t, testConfig(),
		sketchreel.WithImageSource(staticImages{imgs: []image.Image{halves(8, 8)}}),
		sketchreel.WithEncoder(&recordertest.Encoder{}),
		sketchreel.WithArtifactStore(&memStore{}),
		sketchreel.WithNarrator(nil),
	)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case <-r.Completed():
	case <-time.After(10 * time.Second):
		t.Fatal("first session did not complete")
	}

	cfg := testConfig()
	cfg.Settings.Speed = 1
	cfg.Settings.HoldDuration = time.Minute
	if err := r.UpdateSettings(cfg.Settings); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	select {
	case <-r.Completed():
		t.Fatal("Completed() closed for a session still playing")
	default:
	}
}

func TestReel_StartErrors(t *testing.T) {
	loadErr := errors.New("disk on fire")
	r := newTestReel(t, testConfig(),
		sketchreel.WithImageSource(staticImages{err: loadErr}),
		sketchreel.WithEncoder(&recordertest.Encoder{}),
		sketchreel.WithNarrator(nil),
	)
	if err := r.Start(context.Background()); !errors.Is(err, loadErr) {
		t.Errorf("Start() error = %v, want %v", err, loadErr)
	}
	if st := r.Status(); st.State != sketchreel.StateIdle {
		t.Errorf("State = %v, want Idle", st.State)
	}

	empty := newTestReel(t, testConfig(),
		sketchreel.WithImageSource(staticImages{}),
		sketchreel.WithEncoder(&recordertest.Encoder{}),
		sketchreel.WithNarrator(nil),
	)
	if err := empty.Start(context.Background()); !errors.Is(err, sketchreel.ErrInvalidInput) {
		t.Errorf("Start() with no images error = %v, want ErrInvalidInput", err)
	}
}

func TestReel_BackgroundValidation(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name       string
		background string
		wantErr    error
	}{
		{name: "missing file", background: filepath.Join(dir, "not-here.wav"), wantErr: sketchreel.ErrInvalidInput},
		{name: "not audio", background: write("notes.mp3", "plain text, not audio\n"), wantErr: sketchreel.ErrInvalidInput},
		// Sniffs as WAV but has no valid chunks: dropped with a warning.
		{name: "corrupt wav", background: write("broken.wav", "RIFF\x24\x00\x00\x00WAVEjunkjunkjunkjunk")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Background = tt.background
			handler := &recordingHandler{}
			r := newTestReel(t, cfg,
				sketchreel.WithImageSource(staticImages{imgs: []image.Image{halves(8, 8)}}),
				sketchreel.WithEncoder(&recordertest.Encoder{}),
				sketchreel.WithArtifactStore(&memStore{}),
				sketchreel.WithNarrator(nil),
				sketchreel.WithEventHandler(handler),
			)

			err := r.Start(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Start() error = %v, want %v", err, tt.wantErr)
				}
				if st := r.Status(); st.State != sketchreel.StateIdle {
					t.Errorf("State = %v, want Idle after rejected input", st.State)
				}
				return
			}
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			_, warnings, _ := handler.snapshot()
			if len(warnings) < 2 || !errors.Is(warnings[1], sketchreel.ErrResourceUnavailable) {
				t.Errorf("warnings = %v, want narration and background unavailable", warnings)
			}
		})
	}
}

func TestReel_Plugins(t *testing.T) {
	var (
		mu  sync.Mutex
		log []string
	)
	a := &recordingPlugin{name: "a", log: &log, mu: &mu}
	b := &recordingPlugin{name: "b", log: &log, mu: &mu}

	cfg := testConfig()
	cfg.ConfigPath = "/etc/sketchreel.toml"
	r, err := sketchreel.New(cfg,
		sketchreel.WithImageSource(staticImages{imgs: []image.Image{halves(8, 8)}}),
		sketchreel.WithEncoder(&recordertest.Encoder{}),
		sketchreel.WithArtifactStore(&memStore{}),
		sketchreel.WithNarrator(nil),
		sketchreel.WithPlugin(a),
		sketchreel.WithPlugin(b),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := r.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}
	if err := r.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := r.Close(context.Background()); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"init a", "init b", "shutdown b", "shutdown a"}
	if len(log) != len(want) {
		t.Fatalf("plugin calls = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("plugin call %d = %q, want %q", i, log[i], want[i])
		}
	}
	if a.cfg.ConfigPath != cfg.ConfigPath || a.cfg.Controller == nil || a.cfg.Logger == nil {
		t.Errorf("PluginConfig = %+v, want path, controller and logger", a.cfg)
	}
}

func TestReel_PluginInitFailure(t *testing.T) {
	var (
		mu  sync.Mutex
		log []string
	)
	initErr := errors.New("no watcher")
	a := &recordingPlugin{name: "a", log: &log, mu: &mu}
	b := &recordingPlugin{name: "b", log: &log, mu: &mu, initErr: initErr}

	r := newTestReel(t, testConfig(),
		sketchreel.WithImageSource(staticImages{imgs: []image.Image{halves(8, 8)}}),
		sketchreel.WithEncoder(&recordertest.Encoder{}),
		sketchreel.WithNarrator(nil),
		sketchreel.WithPlugin(a),
		sketchreel.WithPlugin(b),
	)
	if err := r.Start(context.Background()); !errors.Is(err, initErr) {
		t.Fatalf("Start() error = %v, want %v", err, initErr)
	}

	mu.Lock()
	defer mu.Unlock()
	if got := log[len(log)-1]; got != "shutdown a" {
		t.Errorf("last plugin call = %q, want shutdown a", got)
	}
}

func TestReel_Closed(t *testing.T) {
	r, err := sketchreel.New(testConfig(),
		sketchreel.WithEncoder(&recordertest.Encoder{}),
		sketchreel.WithNarrator(nil),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := r.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case <-r.Done():
	default:
		t.Error("Done() not closed after Close")
	}
	if err := r.Start(context.Background()); !errors.Is(err, sketchreel.ErrClosed) {
		t.Errorf("Start() error = %v, want ErrClosed", err)
	}
	if err := r.Pause(); !errors.Is(err, sketchreel.ErrClosed) {
		t.Errorf("Pause() error = %v, want ErrClosed", err)
	}
}

type logEntry struct {
	msg    string
	fields map[string]any
}

type logSink struct {
	mu      sync.Mutex
	entries []logEntry
}

func (s *logSink) find(msg string) (logEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

// captureLogger records every message with its fields, including those
// added through With.
type captureLogger struct {
	sink *logSink
	with []sketchreel.LogField
}

func (l *captureLogger) add(msg string, fields []sketchreel.LogField) {
	e := logEntry{msg: msg, fields: map[string]any{}}
	for _, f := range append(append([]sketchreel.LogField(nil), l.with...), fields...) {
		e.fields[f.Key] = f.Value
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.entries = append(l.sink.entries, e)
}

func (l *captureLogger) Debug(msg string, fields ...sketchreel.LogField) { l.add(msg, fields) }
func (l *captureLogger) Info(msg string, fields ...sketchreel.LogField)  { l.add(msg, fields) }
func (l *captureLogger) Warn(msg string, fields ...sketchreel.LogField)  { l.add(msg, fields) }
func (l *captureLogger) Error(msg string, fields ...sketchreel.LogField) { l.add(msg, fields) }

func (l *captureLogger) With(fields ...sketchreel.LogField) sketchreel.Logger {
	return &captureLogger{sink: l.sink, with: append(append([]sketchreel.LogField(nil), l.with...), fields...)}
}

// wavNarrator returns the same 48 kHz stereo WAV for every request.
type wavNarrator struct{ data []byte }

func (n wavNarrator) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	return n.data, nil
}

func wavBytes(t *testing.T, samples int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speech.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 48000, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 48000},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestReel_NarrationLogsEstimate(t *testing.T) {
	sink := &logSink{}
	cfg := testConfig()
	cfg.Settings.HoldDuration = time.Hour
	r := newTestReel(t, cfg,
		sketchreel.WithImageSource(staticImages{imgs: []image.Image{halves(8, 8)}}),
		sketchreel.WithEncoder(&recordertest.Encoder{}),
		sketchreel.WithArtifactStore(&memStore{}),
		sketchreel.WithNarrator(wavNarrator{data: wavBytes(t, 4800)}),
		sketchreel.WithLogger(&captureLogger{sink: sink}),
	)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	e, ok := sink.find("narration ready")
	if !ok {
		t.Fatal("narration ready was not logged")
	}
	tests := []struct {
		field string
		want  time.Duration
	}{
		{"length", 50 * time.Millisecond},
		{"estimated", domain.EstimateNarration(cfg.Narration)},
	}
	for _, tt := range tests {
		if got, _ := e.fields[tt.field].(time.Duration); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.field, e.fields[tt.field], tt.want)
		}
	}
	if e.fields["estimated"] == time.Duration(0) {
		t.Error("estimate is zero for a non-empty narration")
	}
}
