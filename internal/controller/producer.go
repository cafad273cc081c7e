package controller

import (
	"iter"
	"sync"

	"github.com/Iron-Ham/sparcli/internal/errors"
	"github.com/Iron-Ham/sparcli/internal/event"
)

// Producer records samples on behalf of one source. Closing it tells the
// controller the source is done; variables it fed are dropped once no other
// producer feeds them.
type Producer struct {
	id   event.ProducerID
	ctrl *Controller

	mu     sync.Mutex
	closed bool
}

// NewProducer returns a Producer with a fresh identity. The caller must
// Close it; Do does that automatically.
func (c *Controller) NewProducer() *Producer {
	return &Producer{
		id:   event.ProducerID(c.nextProducer.Add(1)),
		ctrl: c,
	}
}

// ID returns the producer's identity.
func (p *Producer) ID() event.ProducerID {
	return p.id
}

// Record enqueues one value per variable name. It never blocks.
func (p *Producer) Record(values map[string]float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.ErrProducerClosed
	}
	if p.ctrl.stopped.Load() {
		return errors.ErrControllerStopped
	}
	if len(values) == 0 {
		return nil
	}
	p.ctrl.queue.Put(event.NewSampleEvent(p.id, values))
	return nil
}

// Set records a single value.
func (p *Producer) Set(name string, value float64) error {
	return p.Record(map[string]float64{name: value})
}

// Close enqueues the producer's stop event. Only the first call has any
// effect.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.ctrl.queue.Put(event.NewProducerStoppedEvent(p.id))
	return nil
}

// Do runs fn with a new Producer and closes it when fn returns, fails or
// panics.
func (c *Controller) Do(fn func(p *Producer) error) error {
	p := c.NewProducer()
	defer p.Close()
	return fn(p)
}

// Number is the set of element types Seq can record.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Seq wraps src so that every element it yields is also recorded under
// name. Elements pass through unchanged. The producer behind the iterator
// is closed when src is exhausted or the consumer stops early.
func Seq[T Number](c *Controller, name string, src iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		p := c.NewProducer()
		defer p.Close()

		for v := range src {
			_ = p.Set(name, float64(v))
			if !yield(v) {
				return
			}
		}
	}
}
