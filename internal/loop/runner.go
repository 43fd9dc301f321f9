package loop

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/orrery/internal/frame"
	"github.com/san-kum/orrery/internal/nbody"
)

// Emitter builds a frame from the bodies without modifying them.
type Emitter interface {
	Emit(b *nbody.Bodies) frame.Frame
}

// Runner owns the bodies for the lifetime of a run.
type Runner struct {
	bodies    *nbody.Bodies
	stepper   Stepper
	emitter   Emitter
	link      Link
	cfg       Config
	pacer     *Pacer
	logger    *log.Logger
	metrics   []Metric
	observers []Observer

	state State
	tick  int
	t     float64
}

// New validates the configuration and bodies and returns a Runner in the
// Running state.
func New(b *nbody.Bodies, stepper Stepper, emitter Emitter, link Link, cfg Config, logger *log.Logger) (*Runner, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		bodies:    b,
		stepper:   stepper,
		emitter:   emitter,
		link:      link,
		cfg:       cfg,
		pacer:     NewPacer(cfg.MinInterval),
		logger:    logger,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		state:     Running,
	}, nil
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) State() State  { return r.state }
func (r *Runner) Ticks() int    { return r.tick }
func (r *Runner) Time() float64 { return r.t }

// Metrics returns the current value of every registered metric.
func (r *Runner) Metrics() map[string]float64 {
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Run ticks until the end message arrives, MaxTicks is reached, ctx is done
// or an error occurs. Receiving the end message returns nil.
func (r *Runner) Run(ctx context.Context) error {
	if r.state == Terminated {
		return ErrTerminated
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	r.logger.Debug("simulation started", "bodies", r.bodies.Len(), "dt", r.cfg.Timestep, "interval", r.cfg.MinInterval)

	for r.cfg.MaxTicks == 0 || r.tick < r.cfg.MaxTicks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stop, err := r.poll()
		if err != nil {
			return err
		}
		if stop {
			r.state = Terminated
			r.logger.Info("simulation exiting ...", "ticks", r.tick)
			return nil
		}

		r.pacer.Mark()
		if err := r.Tick(ctx); err != nil {
			return err
		}

		if r.cfg.MaxTicks > 0 && r.tick >= r.cfg.MaxTicks {
			break
		}
		if err := r.pacer.Wait(ctx); err != nil {
			return err
		}
	}

	r.logger.Debug("tick limit reached", "ticks", r.tick)
	return nil
}

// Tick performs one step and sends one frame without consulting the link for
// control messages.
func (r *Runner) Tick(ctx context.Context) error {
	if err := r.stepper.Step(r.bodies, r.cfg.Timestep); err != nil {
		return fmt.Errorf("tick %d: %w", r.tick, err)
	}
	r.tick++
	r.t += r.cfg.Timestep

	f := r.emitter.Emit(r.bodies)
	if err := r.link.Send(ctx, f); err != nil {
		return fmt.Errorf("%w: send frame %d: %w", ErrChannel, r.tick, err)
	}

	for _, m := range r.metrics {
		m.Observe(r.bodies, r.t)
	}
	for _, o := range r.observers {
		if err := o.OnFrame(r.tick, r.t, f); err != nil {
			return fmt.Errorf("observer at tick %d: %w", r.tick, err)
		}
	}
	return nil
}

// poll drains pending control messages and reports whether the end message
// was among them.
func (r *Runner) poll() (bool, error) {
	for {
		msg, ok, err := r.link.Poll()
		if err != nil {
			return false, fmt.Errorf("%w: poll: %w", ErrChannel, err)
		}
		if !ok {
			return false, nil
		}
		if msg == EndMessage {
			return true, nil
		}
		r.logger.Debug("ignoring control message", "msg", msg)
	}
}

func validateConfig(cfg Config) error {
	if !(cfg.Timestep > 0) {
		return fmt.Errorf("%w: timestep must be positive, got %g", nbody.ErrInvalidConfig, cfg.Timestep)
	}
	if cfg.MinInterval < 0 {
		return fmt.Errorf("%w: interval must not be negative, got %v", nbody.ErrInvalidConfig, cfg.MinInterval)
	}
	if cfg.MaxTicks < 0 {
		return fmt.Errorf("%w: max ticks must not be negative, got %d", nbody.ErrInvalidConfig, cfg.MaxTicks)
	}
	return nil
}
