package controller

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/sparcli/internal/errors"
	"github.com/Iron-Ham/sparcli/internal/event"
)

// fakeRenderer records every call the controller makes.
type fakeRenderer struct {
	mu       sync.Mutex
	started  int
	closed   int
	cleared  int
	frames   [][]Snapshot
	startErr error
	drawErr  error
}

func (r *fakeRenderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	return r.startErr
}

func (r *fakeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *fakeRenderer) Draw(vars []Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, vars)
	return r.drawErr
}

func (r *fakeRenderer) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
	return nil
}

func (r *fakeRenderer) frameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *fakeRenderer) lastFrame() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

func names(snaps []Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Name
	}
	return out
}

func newTestController(t *testing.T, opts Options) (*Controller, *fakeRenderer) {
	t.Helper()
	r := &fakeRenderer{}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Hour
	}
	c, err := New(r, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, r
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(&fakeRenderer{}, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	opts := c.Options()
	if opts.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", opts.PollInterval, DefaultPollInterval)
	}
	if opts.SeriesSize != DefaultSeriesSize {
		t.Errorf("SeriesSize = %d, want %d", opts.SeriesSize, DefaultSeriesSize)
	}
}

func TestNew_InvalidSeriesSize(t *testing.T) {
	for _, size := range []int{-4, 1, 3} {
		if _, err := New(&fakeRenderer{}, Options{SeriesSize: size}); !errors.Is(err, errors.ErrInvalidSeriesSize) {
			t.Errorf("New(SeriesSize=%d) error = %v, want ErrInvalidSeriesSize", size, err)
		}
	}
}

func TestRun_ProcessesEventsInOrder(t *testing.T) {
	c, r := newTestController(t, Options{SeriesSize: 4})

	c.queue.Put(event.NewSampleEvent(1, map[string]float64{"b": 1, "a": 2}))
	c.queue.Put(event.NewSampleEvent(2, map[string]float64{"c": 3, "a": 4}))
	c.queue.Put(event.NewStopEvent())

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if r.started != 1 || r.closed != 1 || r.cleared != 1 {
		t.Errorf("renderer calls = start:%d close:%d clear:%d, want 1 each", r.started, r.closed, r.cleared)
	}
	if got := r.frameCount(); got != 2 {
		t.Fatalf("frames drawn = %d, want 2 (one per non-stop event)", got)
	}

	last := r.lastFrame()
	if got, want := names(last), []string{"a", "b", "c"}; !slices.Equal(got, want) {
		t.Errorf("frame order = %v, want %v", got, want)
	}
	if got, want := last[0].Values, []float64{2, 4}; !slices.Equal(got, want) {
		t.Errorf("a values = %v, want %v", got, want)
	}

	v, ok := c.Variable("a")
	if !ok {
		t.Fatal("variable a missing")
	}
	if v.Producers() != 2 {
		t.Errorf("a producers = %d, want 2", v.Producers())
	}
}

func TestRun_GarbageCollectsStoppedProducers(t *testing.T) {
	c, r := newTestController(t, Options{})

	c.queue.Put(event.NewSampleEvent(1, map[string]float64{"shared": 1, "only1": 1}))
	c.queue.Put(event.NewSampleEvent(2, map[string]float64{"shared": 2}))
	c.queue.Put(event.NewProducerStoppedEvent(1))
	c.queue.Put(event.NewStopEvent())

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got, want := c.Variables(), []string{"shared"}; !slices.Equal(got, want) {
		t.Errorf("Variables() = %v, want %v", got, want)
	}
	if got, want := names(r.lastFrame()), []string{"shared"}; !slices.Equal(got, want) {
		t.Errorf("last frame = %v, want %v", got, want)
	}
}

func TestRun_UnknownEventIsFatal(t *testing.T) {
	c, r := newTestController(t, Options{})

	// Pointer forms satisfy the interface but are not part of the protocol.
	c.queue.Put(&event.StopEvent{})

	err := c.Run(context.Background())
	if !errors.Is(err, errors.ErrUnknownEvent) {
		t.Fatalf("Run() error = %v, want ErrUnknownEvent", err)
	}
	if !errors.IsFatal(err) {
		t.Error("IsFatal(err) = false, want true")
	}
	if r.closed != 1 {
		t.Errorf("renderer closed %d times, want 1", r.closed)
	}
}

func TestRun_NilEventIsFatal(t *testing.T) {
	c, _ := newTestController(t, Options{})
	c.queue.Put(nil)

	if err := c.Run(context.Background()); !errors.Is(err, errors.ErrUnknownEvent) {
		t.Fatalf("Run() error = %v, want ErrUnknownEvent", err)
	}
}

func TestRun_RendererStartFailure(t *testing.T) {
	r := &fakeRenderer{startErr: errors.New("no terminal")}
	c, err := New(r, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want start failure")
	}
	if r.closed != 0 {
		t.Errorf("renderer closed %d times after failed start, want 0", r.closed)
	}
}

func TestRun_DrawErrorsAreNotFatal(t *testing.T) {
	c, r := newTestController(t, Options{})
	r.drawErr = errors.New("terminal gone")

	c.queue.Put(event.NewSampleEvent(1, map[string]float64{"x": 1}))
	c.queue.Put(event.NewSampleEvent(1, map[string]float64{"x": 2}))
	c.queue.Put(event.NewStopEvent())

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if r.frameCount() != 2 {
		t.Errorf("frames = %d, want 2", r.frameCount())
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	c, r := newTestController(t, Options{PollInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if r.cleared != 1 || r.closed != 1 {
		t.Errorf("renderer calls = clear:%d close:%d, want 1 each", r.cleared, r.closed)
	}
}

func TestRun_RedrawsOnHeartbeat(t *testing.T) {
	c, r := newTestController(t, Options{PollInterval: 2 * time.Millisecond})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for r.frameCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("controller did not redraw while idle")
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestStartStop(t *testing.T) {
	c, r := newTestController(t, Options{})

	if c.Done() != nil {
		t.Error("Done() before Start should be nil")
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, errors.ErrControllerStarted) {
		t.Errorf("second Start() error = %v, want ErrControllerStarted", err)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done() should be closed after Stop")
	}
	if r.closed != 1 {
		t.Errorf("renderer closed %d times, want 1", r.closed)
	}

	p := c.NewProducer()
	if err := p.Set("late", 1); !errors.Is(err, errors.ErrControllerStopped) {
		t.Errorf("Set() after Stop error = %v, want ErrControllerStopped", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	c, _ := newTestController(t, Options{})
	if err := c.Stop(); err != nil {
		t.Errorf("Stop() without Start error = %v", err)
	}
}

func TestConcurrentProducersSharedVariable(t *testing.T) {
	bus := event.NewBus()
	var mu sync.Mutex
	var removed []string
	bus.Subscribe(event.TypeVariableRemoved, func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		removed = append(removed, e.(event.VariableRemovedEvent).Name)
	})

	c, _ := newTestController(t, Options{PollInterval: time.Millisecond, Bus: bus})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var wg conc.WaitGroup
	for range 2 {
		wg.Go(func() {
			_ = c.Do(func(p *Producer) error {
				for i := range 500 {
					if err := p.Set("shared", float64(i)); err != nil {
						return err
					}
				}
				return nil
			})
		})
	}
	wg.Wait()

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := c.Variables(); len(got) != 0 {
		t.Errorf("Variables() after both producers stopped = %v, want empty", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(removed, []string{"shared"}) {
		t.Errorf("removed = %v, want [shared]", removed)
	}
}
