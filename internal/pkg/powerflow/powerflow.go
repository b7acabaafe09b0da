/*
powerflow.go Steady state power flow with an ordered fallback chain. Each
stage solves the network from scratch; a stage that fails to converge hands
over to the next. Only when every stage fails is non-convergence reported,
and then as data rather than an error.
*/

package powerflow

import (
	"errors"
	"fmt"
	"log"

	"github.com/ohowland/gridfault/internal/pkg/network"
)

// Algorithm names a solver stage method.
type Algorithm string

// Solver stage methods.
const (
	NewtonRaphson Algorithm = "nr"
	IwamotoNR     Algorithm = "iwamoto_nr"
	Sweep         Algorithm = "bfsw"
)

// ErrNonConvergence marks a stage that exhausted its iteration budget or hit
// a numerically singular step.
var ErrNonConvergence = errors.New("powerflow: did not converge")

// Stage is one attempt in the fallback chain.
type Stage struct {
	Algorithm    Algorithm `json:"algorithm" validate:"oneof=nr iwamoto_nr bfsw"`
	MaxIteration int       `json:"max_iteration" validate:"gt=0"`
	ToleranceMVA float64   `json:"tolerance_mva" validate:"gt=0"`
}

// DefaultStages is Newton-Raphson, then Iwamoto damped Newton-Raphson, then
// the sweep. The fallback stages accept a 1e-5 MVA mismatch rather than the
// first stage's 1e-6.
func DefaultStages() []Stage {
	return []Stage{
		{Algorithm: NewtonRaphson, MaxIteration: 30, ToleranceMVA: 1e-6},
		{Algorithm: IwamotoNR, MaxIteration: 50, ToleranceMVA: 1e-5},
		{Algorithm: Sweep, MaxIteration: 100, ToleranceMVA: 1e-5},
	}
}

// Observer receives the outcome of every stage attempt.
type Observer interface {
	ObserveStage(method Algorithm, converged bool, iterations int)
}

// Resolver solves networks through its stage chain.
type Resolver struct {
	stages      []Stage
	baseMVA     float64
	frequencyHz float64
	observer    Observer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStages replaces the default fallback chain.
func WithStages(stages ...Stage) Option {
	return func(r *Resolver) {
		r.stages = append([]Stage(nil), stages...)
	}
}

// WithBaseMVA sets the per-unit system base.
func WithBaseMVA(base float64) Option {
	return func(r *Resolver) { r.baseMVA = base }
}

// WithFrequency sets the system frequency used for line charging.
func WithFrequency(hz float64) Option {
	return func(r *Resolver) { r.frequencyHz = hz }
}

// WithObserver registers o for stage outcomes.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// NewResolver returns a Resolver on a 1 MVA base at 50 Hz with the default
// stages unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		stages:      DefaultStages(),
		baseMVA:     1,
		frequencyHz: 50,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stages returns a copy of the fallback chain.
func (r *Resolver) Stages() []Stage {
	return append([]Stage(nil), r.stages...)
}

// Solve runs the fallback chain on net. A malformed network is returned as
// a network.ConfigurationError; exhausting every stage is not an error.
func (r *Resolver) Solve(net *network.Network) (ConvergenceResult, error) {
	c, err := newCase(net, r.baseMVA, r.frequencyHz)
	if err != nil {
		return ConvergenceResult{}, err
	}
	if len(c.isolated) > 0 {
		log.Printf("[Resolver] %d buses isolated from the source", len(c.isolated))
	}

	for _, stage := range r.stages {
		v, iterations, err := r.run(c, stage)
		switch {
		case err == nil:
			r.observe(stage.Algorithm, true, iterations)
			return c.result(v, stage.Algorithm, iterations), nil
		case errors.Is(err, ErrNonConvergence):
			log.Printf("[Resolver] stage %s: %v", stage.Algorithm, err)
			r.observe(stage.Algorithm, false, iterations)
		default:
			return ConvergenceResult{}, err
		}
	}

	log.Println("[Resolver] all stages failed to converge")
	return ConvergenceResult{Converged: false, IsolatedBuses: c.isolated}, nil
}

func (r *Resolver) run(c *solverCase, stage Stage) ([]complex128, int, error) {
	switch stage.Algorithm {
	case NewtonRaphson:
		return c.newton(stage, false)
	case IwamotoNR:
		return c.newton(stage, true)
	case Sweep:
		return c.sweep(stage)
	default:
		return nil, 0, fmt.Errorf("powerflow: unknown algorithm %q", stage.Algorithm)
	}
}

func (r *Resolver) observe(method Algorithm, converged bool, iterations int) {
	if r.observer != nil {
		r.observer.ObserveStage(method, converged, iterations)
	}
}
