// Package sketchreel animates still images as pencil sketches and records the
// animation, with narration and background audio, to a video file.
//
// Each image is reduced to its edge pixels, the pixels are ordered into a
// greedy nearest-neighbour path, and the path is drawn a few points per tick
// as connected strokes. After a short hold the next image is drawn. While a
// session plays, the canvas and the mixed audio are encoded and saved when
// the last image completes.
//
// # Basic Usage
//
//	cfg := sketchreel.DefaultConfig()
//	cfg.Images = []string{"one.png", "two.jpg"}
//	cfg.Narration = "A short walk through the garden."
//
//	reel, err := sketchreel.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reel.Close(context.Background())
//
//	if err := reel.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	<-reel.Completed()
//
// # Configuration
//
// Narration text is required. All other fields have defaults set by
// [Config.SetDefaults]. Animation [Settings] can be changed while playing with
// [Reel.UpdateSettings]; changing the edge threshold restarts the current
// image.
//
// # Event Handling
//
// Implement [EventHandler], or embed [BaseEventHandler], and pass it with
// [WithEventHandler]. Events are delivered synchronously, mostly from the
// playback goroutine.
//
// # Degraded Operation
//
// Missing ffmpeg, a failing speech service or an unreadable background track
// do not stop playback. They are reported through [EventHandler.OnWarning]
// with errors wrapping [ErrResourceUnavailable], and the session continues
// without the affected feature.
//
// # Lifecycle States
//
//   - Idle: no session
//   - Playing: drawing, recording and mixing audio
//   - Paused: suspended; Resume continues where it left off
//   - Finalizing: the last image is drawn and the recording is being saved
//   - Complete: the session finished; Start begins a new one
package sketchreel
