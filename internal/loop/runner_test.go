package loop_test

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orrery/internal/frame"
	"github.com/san-kum/orrery/internal/loop"
	"github.com/san-kum/orrery/internal/nbody"
)

// fakeLink queues control messages and records every frame it is sent.
type fakeLink struct {
	inbox   []string
	frames  []frame.Frame
	onSend  func(l *fakeLink)
	pollErr error
	sendErr error
}

func (l *fakeLink) Poll() (string, bool, error) {
	if l.pollErr != nil {
		return "", false, l.pollErr
	}
	if len(l.inbox) == 0 {
		return "", false, nil
	}
	msg := l.inbox[0]
	l.inbox = l.inbox[1:]
	return msg, true, nil
}

func (l *fakeLink) Send(_ context.Context, f frame.Frame) error {
	if l.sendErr != nil {
		return l.sendErr
	}
	l.frames = append(l.frames, f)
	if l.onSend != nil {
		l.onSend(l)
	}
	return nil
}

type failingStepper struct{ err error }

func (s failingStepper) Step(*nbody.Bodies, float64) error { return s.err }

type countingMetric struct{ n int }

func (m *countingMetric) Name() string                   { return "count" }
func (m *countingMetric) Observe(*nbody.Bodies, float64) { m.n++ }
func (m *countingMetric) Value() float64                 { return float64(m.n) }
func (m *countingMetric) Reset()                         { m.n = 0 }

type recordingObserver struct{ ticks []int }

func (o *recordingObserver) OnFrame(tick int, _ float64, _ frame.Frame) error {
	o.ticks = append(o.ticks, tick)
	return nil
}

var _ = Describe("Runner", func() {
	var (
		bodies *nbody.Bodies
		link   *fakeLink
		cfg    loop.Config
		logger *log.Logger
	)

	newRunner := func(stepper loop.Stepper) *loop.Runner {
		r, err := loop.New(bodies, stepper, frame.NewEmitter(nbody.AU), link, cfg, logger)
		Expect(err).NotTo(HaveOccurred())
		return r
	}

	BeforeEach(func() {
		var err error
		bodies, err = nbody.DefaultSolarSystem().Init(nil)
		Expect(err).NotTo(HaveOccurred())
		link = &fakeLink{}
		cfg = loop.Config{Timestep: 3600}
		logger = log.New(io.Discard)
	})

	Context("termination", func() {
		It("stops before the first tick when the end message is already queued", func() {
			link.inbox = []string{loop.EndMessage}
			r := newRunner(nbody.NewIntegrator(false))

			Expect(r.Run(context.Background())).To(Succeed())
			Expect(link.frames).To(BeEmpty())
			Expect(r.State()).To(Equal(loop.Terminated))
		})

		It("sends no frame after the end message is observed", func() {
			link.onSend = func(l *fakeLink) {
				if len(l.frames) == 3 {
					l.inbox = append(l.inbox, loop.EndMessage)
				}
			}
			r := newRunner(nbody.NewIntegrator(false))

			Expect(r.Run(context.Background())).To(Succeed())
			Expect(link.frames).To(HaveLen(3))
			Expect(r.Ticks()).To(Equal(3))
		})

		It("is absorbing", func() {
			link.inbox = []string{loop.EndMessage}
			r := newRunner(nbody.NewIntegrator(false))
			Expect(r.Run(context.Background())).To(Succeed())

			Expect(r.Run(context.Background())).To(MatchError(loop.ErrTerminated))
			Expect(link.frames).To(BeEmpty())
		})

		It("ignores other control messages", func() {
			link.inbox = []string{"pause", "hello"}
			cfg.MaxTicks = 2
			r := newRunner(nbody.NewIntegrator(false))

			Expect(r.Run(context.Background())).To(Succeed())
			Expect(link.frames).To(HaveLen(2))
			Expect(r.State()).To(Equal(loop.Running))
		})

		It("honours end messages queued behind other messages", func() {
			link.inbox = []string{"noise", loop.EndMessage}
			r := newRunner(nbody.NewIntegrator(false))

			Expect(r.Run(context.Background())).To(Succeed())
			Expect(link.frames).To(BeEmpty())
		})

		It("returns the context error when cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			link.onSend = func(l *fakeLink) { cancel() }
			r := newRunner(nbody.NewIntegrator(false))

			Expect(r.Run(ctx)).To(MatchError(context.Canceled))
			Expect(link.frames).To(HaveLen(1))
		})
	})

	Context("frames", func() {
		It("emits one frame per tick in body order with finite values", func() {
			cfg.MaxTicks = 1
			r := newRunner(nbody.NewIntegrator(false))

			Expect(r.Run(context.Background())).To(Succeed())
			Expect(link.frames).To(HaveLen(1))

			f := link.frames[0]
			Expect(f).To(HaveLen(4))
			for i := range f {
				for _, v := range f[i] {
					Expect(math.IsNaN(v) || math.IsInf(v, 0)).To(BeFalse())
				}
			}
			for i := 1; i < f.Len(); i++ {
				Expect(f.Distance(i)).To(BeNumerically(">", f.Distance(i-1)))
			}
			Expect(f[3][3]).To(BeNumerically("~", nbody.DefaultBaseRadius/2/nbody.AU, 1e-15))
			Expect(bodies.IsFinite()).To(BeTrue())
		})

		It("feeds metrics and observers once per tick", func() {
			cfg.MaxTicks = 5
			r := newRunner(nbody.NewIntegrator(false))
			m := &countingMetric{}
			o := &recordingObserver{}
			r.AddMetric(m)
			r.AddObserver(o)

			Expect(r.Run(context.Background())).To(Succeed())
			Expect(r.Metrics()).To(HaveKeyWithValue("count", 5.0))
			Expect(o.ticks).To(Equal([]int{1, 2, 3, 4, 5}))
			Expect(r.Time()).To(BeNumerically("~", 5*3600.0, 1e-9))
		})
	})

	Context("errors", func() {
		It("stops on numerical failure", func() {
			r := newRunner(failingStepper{err: &nbody.StepError{Body: 2, Wrapped: nbody.ErrCoincident}})

			err := r.Run(context.Background())
			Expect(errors.Is(err, nbody.ErrCoincident)).To(BeTrue())
			Expect(link.frames).To(BeEmpty())
		})

		It("treats poll failures as channel errors", func() {
			link.pollErr = io.ErrUnexpectedEOF
			r := newRunner(nbody.NewIntegrator(false))

			err := r.Run(context.Background())
			Expect(err).To(MatchError(loop.ErrChannel))
			Expect(err).To(MatchError(io.ErrUnexpectedEOF))
		})

		It("treats send failures as channel errors", func() {
			link.sendErr = io.ErrClosedPipe
			r := newRunner(nbody.NewIntegrator(false))

			Expect(r.Run(context.Background())).To(MatchError(loop.ErrChannel))
		})

		DescribeTable("rejects invalid configuration",
			func(c loop.Config) {
				_, err := loop.New(bodies, nbody.NewIntegrator(false), frame.NewEmitter(1), link, c, logger)
				Expect(err).To(MatchError(nbody.ErrInvalidConfig))
			},
			Entry("zero timestep", loop.Config{Timestep: 0}),
			Entry("negative timestep", loop.Config{Timestep: -1}),
			Entry("negative interval", loop.Config{Timestep: 1, MinInterval: -time.Second}),
			Entry("negative max ticks", loop.Config{Timestep: 1, MaxTicks: -1}),
		)

		It("rejects invalid bodies", func() {
			bodies.Mass[2] = 0
			_, err := loop.New(bodies, nbody.NewIntegrator(false), frame.NewEmitter(1), link, cfg, logger)
			Expect(err).To(MatchError(nbody.ErrInvalidBodies))
		})
	})

	Context("pacing", func() {
		It("keeps at least the minimum interval between ticks", func() {
			cfg.MaxTicks = 3
			cfg.MinInterval = 20 * time.Millisecond
			r := newRunner(nbody.NewIntegrator(false))

			start := time.Now()
			Expect(r.Run(context.Background())).To(Succeed())
			Expect(time.Since(start)).To(BeNumerically(">=", 40*time.Millisecond))
		})

		It("does not wait after the last tick", func() {
			cfg.MaxTicks = 1
			cfg.MinInterval = 500 * time.Millisecond
			r := newRunner(nbody.NewIntegrator(false))

			start := time.Now()
			Expect(r.Run(context.Background())).To(Succeed())
			Expect(r.Ticks()).To(Equal(1))
			Expect(time.Since(start)).To(BeNumerically("<", 250*time.Millisecond))
		})
	})
})

var _ = Describe("IntervalForFPS", func() {
	It("converts a rate into an interval", func() {
		Expect(loop.IntervalForFPS(50)).To(Equal(20 * time.Millisecond))
	})

	It("treats non-positive rates as unpaced", func() {
		Expect(loop.IntervalForFPS(0)).To(BeZero())
		Expect(loop.IntervalForFPS(-5)).To(BeZero())
	})
})
