package sketchreel

// Option configures optional behavior of a Reel.
type Option func(*options)

type options struct {
	logger       Logger
	eventHandler EventHandler
	surface      Surface
	encoder      Encoder
	store        ArtifactStore
	narrator     Narrator
	images       ImageSource
	httpClient   HTTPClient
	plugins      []Plugin
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for Reel events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithSurface replaces the default software canvas.
func WithSurface(s Surface) Option {
	return func(o *options) {
		o.surface = s
	}
}

// WithEncoder replaces the default ffmpeg encoder.
func WithEncoder(e Encoder) Option {
	return func(o *options) {
		o.encoder = e
	}
}

// WithArtifactStore replaces the default directory store.
func WithArtifactStore(s ArtifactStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithNarrator replaces the default speech client. A nil narrator disables
// narration audio; the text is still required.
func WithNarrator(n Narrator) Option {
	return func(o *options) {
		o.narrator = n
		if n == nil {
			o.narrator = noNarrator{}
		}
	}
}

// WithImageSource replaces loading Config.Images from disk.
func WithImageSource(s ImageSource) Option {
	return func(o *options) {
		o.images = s
	}
}

// WithHTTPClient sets the client used by the default narrator.
func WithHTTPClient(c HTTPClient) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithPlugin registers a plugin. Plugins are initialized in registration
// order and shut down in reverse order.
func WithPlugin(p Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, p)
	}
}
