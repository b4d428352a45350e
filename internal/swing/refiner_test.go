package swing_test

import (
	"context"
	"errors"
	"io"
	"math"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/integrators"
	"github.com/xxori/elastic-pendulum/internal/physics"
	"github.com/xxori/elastic-pendulum/internal/swing"
)

// spinner rotates at a constant rate and never turns around.
type spinner struct{}

func (spinner) StateDim() int { return 4 }

func (spinner) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[physics.ThetaDot], 0, 0, 0}, nil
}

var quiet = log.New(io.Discard)

func swingRefiner(horizon float64) *swing.Refiner {
	p := physics.NewElasticPendulum()
	p.Stiffness = 40

	cfg := dynamo.DefaultConfig()
	cfg.Duration = horizon
	return &swing.Refiner{
		Sim:    dynamo.New(p, integrators.NewRK45()),
		X0:     physics.InitialState(math.Pi/2, 0, p.RestLength, 0),
		Config: cfg,
		Logger: quiet,
	}
}

var _ = Describe("Refiner", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with k=40 released from horizontal", func() {
		It("finds the tenth swing starting from a 20s horizon", func() {
			r := swingRefiner(20)

			res, err := r.TimeForSwing(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Time).To(BeNumerically(">", 0))
			Expect(math.IsInf(res.Time, 0) || math.IsNaN(res.Time)).To(BeFalse())
			Expect(res.Doublings).To(BeNumerically("<=", swing.DefaultMaxDoublings))
			Expect(res.Time).To(BeNumerically("<=", res.Horizon))
			Expect(len(res.Events)).To(BeNumerically(">=", 20))
			Expect(res.Time).To(BeNumerically("~", float64(res.EventIndex)*r.Config.Dt, 1e-12))
		})

		It("is strictly increasing in the swing count", func() {
			r := swingRefiner(20)

			prev := 0.0
			for n := 1; n <= 6; n++ {
				res, err := r.TimeForSwing(ctx, n)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Time).To(BeNumerically(">", prev), "swing %d", n)
				prev = res.Time
			}
		})

		It("does not depend on the starting horizon", func() {
			short, err := swingRefiner(2).TimeForSwing(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			long, err := swingRefiner(40).TimeForSwing(ctx, 3)
			Expect(err).NotTo(HaveOccurred())

			Expect(short.Doublings).To(BeNumerically(">", 0))
			Expect(long.Doublings).To(Equal(0))
			Expect(short.Time).To(Equal(long.Time))
		})

		It("matches the convenience function", func() {
			r := swingRefiner(20)
			res, err := r.TimeForSwing(ctx, 2)
			Expect(err).NotTo(HaveOccurred())

			t, err := swing.Refine(ctx, r.Sim, r.X0, 20, r.Config.Dt, 2, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(res.Time))
		})
	})

	Context("when the pendulum never turns around", func() {
		var r *swing.Refiner

		BeforeEach(func() {
			cfg := dynamo.DefaultConfig()
			cfg.Duration = 1
			r = &swing.Refiner{
				Sim:          dynamo.New(spinner{}, integrators.NewRK45()),
				X0:           physics.InitialState(0, 1, 1, 0),
				Config:       cfg,
				MaxDoublings: 2,
				Logger:       quiet,
			}
		})

		It("fails after the doubling limit", func() {
			_, err := r.TimeForSwing(ctx, 1)
			Expect(err).To(MatchError(swing.ErrUnreachable))
			Expect(err.Error()).To(ContainSubstring("horizon 4"))
		})

		It("fails at the horizon limit", func() {
			r.MaxDoublings = -1
			r.MaxHorizon = 3

			_, err := r.TimeForSwing(ctx, 1)
			Expect(errors.Is(err, swing.ErrUnreachable)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("max 3"))
		})

		It("refuses to search without any limit", func() {
			r.MaxDoublings = -1

			_, err := r.TimeForSwing(ctx, 1)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	It("rejects swing counts below one", func() {
		_, err := swingRefiner(20).TimeForSwing(ctx, 0)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})

	It("passes integration errors through", func() {
		r := swingRefiner(20)
		r.X0 = physics.InitialState(0.5, 0, 0, 0)

		_, err := r.TimeForSwing(ctx, 1)
		Expect(err).To(MatchError(dynamo.ErrSingular))
		Expect(errors.Is(err, swing.ErrUnreachable)).To(BeFalse())
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := swingRefiner(20).TimeForSwing(cctx, 1)
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
	})
})
