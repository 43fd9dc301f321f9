package loop

import (
	"context"
	"errors"
	"time"

	"github.com/san-kum/orrery/internal/frame"
	"github.com/san-kum/orrery/internal/nbody"
)

// EndMessage is the control message that terminates a run.
const EndMessage = "END"

var (
	// ErrChannel indicates a failure receiving from or sending to the link.
	ErrChannel = errors.New("loop: channel failure")

	// ErrTerminated is returned when Run is called after termination.
	ErrTerminated = errors.New("loop: runner already terminated")
)

// State of a Runner.
type State int

const (
	Running State = iota
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Link is the duplex channel to the renderer. Poll must not block.
type Link interface {
	Poll() (msg string, ok bool, err error)
	Send(ctx context.Context, f frame.Frame) error
}

// Stepper advances the bodies by dt seconds.
type Stepper interface {
	Step(b *nbody.Bodies, dt float64) error
}

// Metric accumulates a scalar over the ticks of a run.
type Metric interface {
	Name() string
	Observe(b *nbody.Bodies, t float64)
	Value() float64
	Reset()
}

// Observer is told about every frame after it was sent.
type Observer interface {
	OnFrame(tick int, t float64, f frame.Frame) error
}

// Config holds the loop tuning values.
type Config struct {
	// Timestep is the simulated time per tick, in seconds.
	Timestep float64
	// MinInterval is the minimum wall-clock time between ticks. Zero runs
	// unpaced.
	MinInterval time.Duration
	// MaxTicks stops the run after that many ticks. Zero runs until told
	// to stop.
	MaxTicks int
}

const (
	DefaultTimestep = 3600.0
	DefaultFPS      = 60
)

func DefaultConfig() Config {
	return Config{
		Timestep:    DefaultTimestep,
		MinInterval: IntervalForFPS(DefaultFPS),
	}
}

// IntervalForFPS converts a target frame rate into a minimum tick interval.
// Non-positive rates mean unpaced.
func IntervalForFPS(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
