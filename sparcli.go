// Package sparcli draws live sparklines of numeric variables at the bottom
// of the terminal while the program keeps printing above them.
//
// A Session intercepts stdout and stderr, replays everything the program
// writes, and redraws one line per variable after it:
//
//	s, err := sparcli.New(config.Default())
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.Do(func(p *sparcli.Producer) error {
//		for i := range 100 {
//			_ = p.Set("loss", 1/float64(i+1))
//		}
//		return nil
//	})
//
// Producers are safe for concurrent use from any goroutine; only the
// session's controller goroutine touches the terminal.
package sparcli

import (
	"context"
	"iter"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/sparcli/internal/capture"
	"github.com/Iron-Ham/sparcli/internal/config"
	"github.com/Iron-Ham/sparcli/internal/controller"
	"github.com/Iron-Ham/sparcli/internal/errors"
	"github.com/Iron-Ham/sparcli/internal/event"
	"github.com/Iron-Ham/sparcli/internal/logging"
	"github.com/Iron-Ham/sparcli/internal/platform"
	"github.com/Iron-Ham/sparcli/internal/render"
)

// Producer records samples into a session.
type Producer = controller.Producer

// Number is the set of element types Seq can record.
type Number = controller.Number

// Option customizes a Session.
type Option func(*options)

type options struct {
	logger   *logging.Logger
	bus      *event.Bus
	platform platform.Platform
}

// WithLogger logs through l instead of the logger described by the
// configuration. The session does not close l.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBus publishes controller notifications (variables added and
// removed, frames drawn) on b.
func WithBus(b *event.Bus) Option {
	return func(o *options) { o.bus = b }
}

// WithPlatform replaces the OS descriptor layer.
func WithPlatform(p platform.Platform) Option {
	return func(o *options) { o.platform = p }
}

// Session is one running chart: captured streams, a renderer and the
// controller goroutine that drives them.
type Session struct {
	ctrl      *controller.Controller
	logger    *logging.Logger
	ownLogger bool

	closeOnce sync.Once
	closeErr  error
}

// startSignal reports the result of the renderer's Start so New can fail
// when the streams cannot be captured.
type startSignal struct {
	controller.Renderer
	started chan error
}

func (s *startSignal) Start() error {
	err := s.Renderer.Start()
	s.started <- err
	return err
}

// New starts a session configured by cfg. The streams are captured by the
// time New returns; Close restores them.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{logger: o.logger}
	if s.logger == nil {
		if cfg.Logging.Enabled {
			l, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
			if err != nil {
				return nil, errors.Wrap(err, "create logger")
			}
			s.logger = l
			s.ownLogger = true
		} else {
			s.logger = logging.NopLogger()
		}
	}

	if err := s.start(cfg, o); err != nil {
		s.closeLogger()
		return nil, err
	}
	return s, nil
}

func (s *Session) start(cfg *config.Config, o options) error {
	p := o.platform
	if p == nil {
		p = platform.Default()
	}
	p.ApplyWorkarounds()

	stdout, stderr, err := cfg.Capture.Methods()
	if err != nil {
		return err
	}
	mc, err := capture.NewMulti(p, stdout, stderr, s.logger)
	if err != nil {
		return err
	}

	style := lipgloss.NewStyle()
	if cfg.Display.BoldNames {
		style = render.DefaultNameStyle()
	}
	r := &startSignal{
		Renderer: render.New(mc, render.Options{
			MaxNameWidth: cfg.Display.MaxNameWidth,
			NameStyle:    style,
			Logger:       s.logger,
		}),
		started: make(chan error, 1),
	}

	ctrl, err := controller.New(r, controller.Options{
		PollInterval: cfg.Display.PollInterval,
		SeriesSize:   cfg.Display.SeriesSize,
		MaxScale:     cfg.Display.MaxScale,
		Logger:       s.logger,
		Bus:          o.bus,
	})
	if err != nil {
		return err
	}
	if err := ctrl.Start(context.Background()); err != nil {
		return err
	}
	if err := <-r.started; err != nil {
		// Run has already returned; Stop only collects its error.
		return ctrl.Stop()
	}

	s.ctrl = ctrl
	s.logger.Info("session started", "stdout", string(stdout), "stderr", string(stderr))
	return nil
}

// Producer returns a new producer. The caller must Close it.
func (s *Session) Producer() *Producer {
	return s.ctrl.NewProducer()
}

// Do runs fn with a new producer that is closed when fn returns.
func (s *Session) Do(fn func(p *Producer) error) error {
	return s.ctrl.Do(fn)
}

// Controller returns the session's controller.
func (s *Session) Controller() *controller.Controller {
	return s.ctrl
}

// Close clears the chart, restores stdout and stderr and waits for the
// controller goroutine to exit. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ctrl.Stop()
		if s.closeErr != nil {
			s.logger.Error("session stopped with error", "error", s.closeErr)
		} else {
			s.logger.Info("session stopped")
		}
		s.closeLogger()
	})
	return s.closeErr
}

func (s *Session) closeLogger() {
	if s.ownLogger {
		_ = s.logger.Close()
	}
}

// SeqOn wraps src so every element it yields is also recorded under name
// in s.
func SeqOn[T Number](s *Session, src iter.Seq[T], name string) iter.Seq[T] {
	return controller.Seq(s.ctrl, name, src)
}

var (
	defaultMu      sync.Mutex
	defaultSession *Session

	// newDefault builds the process-wide session.
	newDefault = func() (*Session, error) {
		return New(config.Get())
	}
)

// Default returns the process-wide session, starting it on first use with
// the configuration loaded through viper. Concurrent first calls start
// exactly one session.
func Default() (*Session, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSession == nil {
		s, err := newDefault()
		if err != nil {
			return nil, err
		}
		defaultSession = s
	}
	return defaultSession, nil
}

// Shutdown closes the process-wide session if one is running. A later call
// to Default starts a fresh one.
func Shutdown() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSession == nil {
		return nil
	}
	err := defaultSession.Close()
	defaultSession = nil
	return err
}

// Context returns a new producer on the process-wide session.
func Context() (*Producer, error) {
	s, err := Default()
	if err != nil {
		return nil, err
	}
	return s.Producer(), nil
}

// Seq wraps src so every element it yields is also recorded under name in
// the process-wide session. If that session cannot start, the elements of
// src pass through unrecorded.
func Seq[T Number](src iter.Seq[T], name string) iter.Seq[T] {
	return func(yield func(T) bool) {
		s, err := Default()
		if err != nil {
			for v := range src {
				if !yield(v) {
					return
				}
			}
			return
		}
		for v := range SeqOn(s, src, name) {
			if !yield(v) {
				return
			}
		}
	}
}
