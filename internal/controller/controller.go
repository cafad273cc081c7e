// Package controller owns the variable registry and the redraw loop.
//
// Producers never touch the registry. They enqueue control events on an
// unbounded queue; a single goroutine running Controller.Run drains it,
// updates variables, garbage-collects variables whose producers have all
// stopped, and redraws after every event or poll timeout.
package controller

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/sparcli/internal/errors"
	"github.com/Iron-Ham/sparcli/internal/event"
	"github.com/Iron-Ham/sparcli/internal/logging"
	"github.com/Iron-Ham/sparcli/internal/series"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultSeriesSize   = 30
)

// Renderer draws the registry. Start and Close bracket the controller
// loop; Draw is called after every event or poll timeout and Clear once
// before the loop exits on a stop request.
type Renderer interface {
	Start() error
	Close() error
	Draw(vars []Snapshot) error
	Clear() error
}

// Options configures a Controller.
type Options struct {
	// PollInterval bounds how long the loop waits for an event before
	// redrawing anyway.
	PollInterval time.Duration
	// SeriesSize is the capacity of each variable's series. Must be a
	// positive multiple of 2.
	SeriesSize int
	// MaxScale caps series compaction; zero means no cap.
	MaxScale int

	Logger *logging.Logger
	Bus    *event.Bus
}

// Controller is the single consumer of producer events.
type Controller struct {
	renderer Renderer
	queue    *event.Queue
	opts     Options
	logger   *logging.Logger
	bus      *event.Bus

	// Registry, owned by the Run goroutine.
	variables map[string]*Variable
	order     []string

	nextProducer atomic.Uint64
	stopped      atomic.Bool

	mu       sync.Mutex
	done     chan struct{}
	runErr   error
	stopOnce sync.Once
}

// New creates a Controller drawing through r.
func New(r Renderer, opts Options) (*Controller, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.SeriesSize == 0 {
		opts.SeriesSize = DefaultSeriesSize
	}
	if _, err := series.New(opts.SeriesSize, opts.MaxScale); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}

	return &Controller{
		renderer:  r,
		queue:     event.NewQueue(),
		opts:      opts,
		logger:    opts.Logger.WithComponent("controller"),
		bus:       opts.Bus,
		variables: make(map[string]*Variable),
	}, nil
}

// Start runs the loop on a new goroutine.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		return errors.ErrControllerStarted
	}
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.runErr = c.Run(ctx)
	}()
	return nil
}

// Stop asks the loop to clear the display and exit, waits for it to finish
// and returns its error. Stop is idempotent. The renderer restores the
// captured streams on the way out, so Stop returns only once they are back.
func (c *Controller) Stop() error {
	c.stopOnce.Do(func() {
		c.queue.Put(event.NewStopEvent())
	})

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	return c.runErr
}

// Done is closed when a loop started with Start has returned. It is nil
// before Start.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Run drains the queue until a StopEvent arrives or ctx is done. It starts
// the renderer first and always closes it before returning.
func (c *Controller) Run(ctx context.Context) (err error) {
	defer c.stopped.Store(true)

	if err := c.renderer.Start(); err != nil {
		return errors.Wrap(err, "start renderer")
	}
	defer func() {
		if closeErr := c.renderer.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close renderer"))
		}
	}()

	c.logger.Debug("controller started", "poll_interval", c.opts.PollInterval.String())
	for {
		e, ok := c.queue.Get(ctx, c.opts.PollInterval)
		if ctx.Err() != nil {
			c.logger.Debug("controller canceled")
			return c.clear()
		}
		if ok {
			stop, err := c.handle(e)
			if err != nil {
				c.logger.Error("controller loop failed", "error", err)
				return err
			}
			if stop {
				c.logger.Debug("controller stopping")
				return c.clear()
			}
		}
		c.draw()
	}
}

func (c *Controller) handle(e event.Control) (bool, error) {
	switch ev := e.(type) {
	case event.SampleEvent:
		c.sampleRecorded(ev)
	case event.ProducerStoppedEvent:
		c.producerStopped(ev.ProducerID)
	case event.StopEvent:
		return true, nil
	default:
		return false, errors.NewControllerError("dequeued value outside the control protocol", errors.ErrUnknownEvent).
			WithEvent(fmt.Sprintf("%T", e))
	}
	return false, nil
}

func (c *Controller) sampleRecorded(ev event.SampleEvent) {
	// Sorted so that variables first seen in the same sample are created,
	// and therefore drawn, in a stable order.
	for _, name := range slices.Sorted(maps.Keys(ev.Values)) {
		v := c.variables[name]
		if v == nil {
			v = c.addVariable(name)
		}
		v.Reference(ev.ProducerID)
		v.Series.Add(ev.Values[name])
	}
}

func (c *Controller) addVariable(name string) *Variable {
	// Options were validated in New, so this cannot fail.
	s, _ := series.New(c.opts.SeriesSize, c.opts.MaxScale)
	v := newVariable(name, s)
	c.variables[name] = v
	c.order = append(c.order, name)

	c.logger.Debug("variable added", "variable", name)
	c.bus.Publish(event.NewVariableAddedEvent(name))
	return v
}

func (c *Controller) producerStopped(id event.ProducerID) {
	for _, v := range c.variables {
		v.Dereference(id)
	}
	c.logger.Debug("producer stopped", "producer_id", uint64(id))
	c.collectGarbage()
}

// collectGarbage drops every variable without live producers.
func (c *Controller) collectGarbage() {
	kept := c.order[:0]
	for _, name := range c.order {
		if c.variables[name].Live() {
			kept = append(kept, name)
			continue
		}
		delete(c.variables, name)
		c.logger.Debug("variable removed", "variable", name)
		c.bus.Publish(event.NewVariableRemovedEvent(name))
	}
	clear(c.order[len(kept):])
	c.order = kept
}

func (c *Controller) snapshots() []Snapshot {
	snaps := make([]Snapshot, 0, len(c.order))
	for _, name := range c.order {
		snaps = append(snaps, Snapshot{Name: name, Values: c.variables[name].Series.Values()})
	}
	return snaps
}

func (c *Controller) draw() {
	snaps := c.snapshots()
	if err := c.renderer.Draw(snaps); err != nil {
		c.logger.Warn("draw failed", "error", err)
		return
	}
	c.bus.Publish(event.NewFrameDrawnEvent(len(snaps)))
}

func (c *Controller) clear() error {
	if err := c.renderer.Clear(); err != nil {
		return errors.Wrap(err, "clear display")
	}
	return nil
}

// Variables returns the names of the registered variables in draw order.
// It reads the registry without synchronization, so call it only when the
// loop is not running.
func (c *Controller) Variables() []string {
	return slices.Clone(c.order)
}

// Variable returns the registered variable called name. The same
// restriction as Variables applies.
func (c *Controller) Variable(name string) (*Variable, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// Options returns the effective options after defaults were applied.
func (c *Controller) Options() Options {
	return c.opts
}
