package app

import (
	"context"
	"image"
	"time"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/edge"
	"github.com/bft-labs/sketchreel/internal/ports"
	"github.com/bft-labs/sketchreel/internal/tour"
)

// prepared carries one image's path back to the controller goroutine.
type prepared struct {
	index      int
	generation int
	path       domain.OrderedPath
	err        error
	took       time.Duration
}

// preparePath extracts and orders the edge points of img. It runs on a
// worker goroutine.
func preparePath(ctx context.Context, img image.Image, threshold float64, strategy tour.Strategy) (domain.OrderedPath, error) {
	set, err := edge.Extract(ctx, img, threshold)
	if err != nil {
		return domain.OrderedPath{}, err
	}
	return tour.Path(ctx, set, strategy)
}

// requestPath starts preparation of image index unless it is cached, in
// flight or out of range.
func (c *Controller) requestPath(index int) {
	if index < 0 || index >= len(c.media.Images) {
		return
	}
	if _, ok := c.cache[index]; ok || c.pending[index] {
		return
	}
	c.pending[index] = true

	img := c.media.Images[index]
	threshold := c.settings.EdgeThreshold
	strategy := c.cfg.Sequencer
	gen := c.generation
	ctx := c.prepCtx

	c.lifecycle.AddWorker()
	go func() {
		defer c.lifecycle.WorkerDone()
		started := time.Now()
		path, err := preparePath(ctx, img, threshold, strategy)
		msg := prepared{index: index, generation: gen, path: path, err: err, took: time.Since(started)}
		select {
		case c.prepared <- msg:
		case <-ctx.Done():
		}
	}()
}

// onPrepared stores a finished path and loads it if it is the image being
// waited on.
func (c *Controller) onPrepared(p prepared) {
	if p.generation != c.generation {
		return
	}
	delete(c.pending, p.index)
	if p.err != nil {
		if ctxErr := c.prepCtx.Err(); ctxErr != nil {
			return
		}
		c.warn(p.err, "image preparation failed, skipping image", ports.Int("image", p.index))
		p.path = domain.OrderedPath{}
	}
	c.logger.Debug("image prepared",
		ports.Int("image", p.index),
		ports.Int("points", p.path.Len()),
		ports.Int("width", p.path.Width),
		ports.Int("height", p.path.Height),
		ports.Duration("took", p.took))

	c.cache[p.index] = p.path
	if p.index == c.sched.Index() && !c.sched.Loaded() && c.lifecycle.State().Active() {
		c.loadCurrent()
	}
}

// loadCurrent installs the current image's path if it is ready, otherwise
// requests it. The next image is prefetched either way.
func (c *Controller) loadCurrent() {
	idx := c.sched.Index()
	path, ok := c.cache[idx]
	if !ok {
		c.requestPath(idx)
		return
	}
	delete(c.cache, idx)
	c.sched.Load(path)
	c.surface.Resize(path.Width, path.Height)
	c.requestPath(idx + 1)
	c.publish()
}

// invalidatePaths cancels in-flight preparation and drops cached paths.
func (c *Controller) invalidatePaths() {
	c.generation++
	if c.prepCancel != nil {
		c.prepCancel()
	}
	c.prepCtx, c.prepCancel = context.WithCancel(c.runCtx)
	c.cache = make(map[int]domain.OrderedPath)
	c.pending = make(map[int]bool)
}
