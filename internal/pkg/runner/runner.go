/*
runner.go The build, mutate, solve pipeline. Every run starts from a freshly
built network so scenarios never see each other's edits. Run starts are
published on msg.Status, finished reports on msg.Result.
*/

package runner

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/ohowland/gridfault/internal/pkg/catalog"
	"github.com/ohowland/gridfault/internal/pkg/msg"
	"github.com/ohowland/gridfault/internal/pkg/network"
	"github.com/ohowland/gridfault/internal/pkg/powerflow"
	"github.com/ohowland/gridfault/internal/pkg/scenario"
	"github.com/ohowland/gridfault/internal/pkg/topology"
)

// BaselineName labels the unperturbed run.
const BaselineName = "baseline"

// Solver resolves a network.
type Solver interface {
	Solve(*network.Network) (powerflow.ConvergenceResult, error)
}

// Recorder counts finished scenario runs.
type Recorder interface {
	RecordScenario(name string, converged bool)
}

// Report is the outcome of one scenario run.
type Report struct {
	RunID       uuid.UUID                   `json:"run_id"`
	Scenario    string                      `json:"scenario"`
	Category    scenario.Category           `json:"category,omitempty"`
	Description string                      `json:"description,omitempty"`
	Steps       []string                    `json:"steps,omitempty"`
	Result      powerflow.ConvergenceResult `json:"result"`
}

// Progress announces a run on msg.Status.
type Progress struct {
	RunID    uuid.UUID `json:"run_id"`
	Scenario string    `json:"scenario"`
	Steps    int       `json:"steps"`
}

func (p Progress) String() string {
	return fmt.Sprintf("%s started, %d steps", p.Scenario, p.Steps)
}

// Runner executes scenarios against fresh network instances.
type Runner struct {
	pid       uuid.UUID
	catalog   *catalog.Catalog
	solver    Solver
	recorder  Recorder
	publisher *msg.PubSub
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder registers rec for run outcomes.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// New returns a Runner building into cat and solving with solver. The
// topology's templates are registered in cat up front.
func New(cat *catalog.Catalog, solver Solver, opts ...Option) (*Runner, error) {
	if err := topology.Register(cat); err != nil {
		return nil, err
	}
	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	r := &Runner{
		pid:       pid,
		catalog:   cat,
		solver:    solver,
		publisher: msg.NewPublisher(pid),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// PID is an accessor for the runner's process id.
func (r *Runner) PID() uuid.UUID {
	return r.pid
}

// Subscribe returns a channel on which the topic is broadcast.
func (r *Runner) Subscribe(pid uuid.UUID, topic msg.Topic) (<-chan msg.Msg, error) {
	return r.publisher.Subscribe(pid, topic)
}

// Unsubscribe removes pid from every topic.
func (r *Runner) Unsubscribe(pid uuid.UUID) {
	r.publisher.Unsubscribe(pid)
}

// Catalog returns the equipment catalog the runner builds with.
func (r *Runner) Catalog() *catalog.Catalog {
	return r.catalog
}

// Run builds a fresh network, applies the named scenario and solves it.
func (r *Runner) Run(name string) (Report, error) {
	s, err := scenario.Lookup(name)
	if err != nil {
		return Report{}, err
	}
	return r.run(s)
}

// Baseline solves the unperturbed network.
func (r *Runner) Baseline() (Report, error) {
	return r.run(scenario.Scenario{Name: BaselineName, Description: "unperturbed network"})
}

// RunAll runs every catalog scenario in order. It stops at the first
// configuration error.
func (r *Runner) RunAll() ([]Report, error) {
	all := scenario.All()
	reports := make([]Report, 0, len(all))
	for _, s := range all {
		report, err := r.run(s)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *Runner) run(s scenario.Scenario) (Report, error) {
	runID, err := uuid.NewUUID()
	if err != nil {
		return Report{}, err
	}
	r.publisher.Publish(msg.Status, Progress{RunID: runID, Scenario: s.Name, Steps: len(s.Actions)})

	net, err := topology.Build(r.catalog)
	if err != nil {
		return Report{}, fmt.Errorf("runner: %s: build: %w", s.Name, err)
	}
	if err := s.Apply(net); err != nil {
		return Report{}, fmt.Errorf("runner: %s: %w", s.Name, err)
	}

	result, err := r.solver.Solve(net)
	if err != nil {
		log.Printf("[Runner] %s aborted: %v", s.Name, err)
		return Report{}, fmt.Errorf("runner: %s: %w", s.Name, err)
	}
	log.Printf("[Runner] %s converged=%v method=%s", s.Name, result.Converged, result.Method)

	report := Report{
		RunID:       runID,
		Scenario:    s.Name,
		Category:    s.Category,
		Description: s.Description,
		Steps:       s.Steps(),
		Result:      result,
	}
	if r.recorder != nil {
		r.recorder.RecordScenario(s.Name, result.Converged)
	}
	r.publisher.Publish(msg.Result, report)
	return report, nil
}
