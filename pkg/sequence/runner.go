package sequence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aoyoqui/benderr/pkg/config"
	"github.com/aoyoqui/benderr/pkg/errs"
	"github.com/aoyoqui/benderr/pkg/report"
	"github.com/aoyoqui/benderr/pkg/specmatch"
	"github.com/aoyoqui/benderr/pkg/types"
)

// Publisher is the subset of the event bus a Runner needs to emit
// lifecycle events.
type Publisher interface {
	PublishStepStarted(step types.Step)
	PublishStepEnded(result types.StepResult)
}

// noopPublisher is used when a Runner is constructed without a bus.
type noopPublisher struct{}

func (noopPublisher) PublishStepStarted(types.Step)     {}
func (noopPublisher) PublishStepEnded(types.StepResult) {}

// Option configures a Runner.
type Option func(*Runner)

// WithPublisher attaches an event bus publisher.
func WithPublisher(p Publisher) Option { return func(r *Runner) { r.bus = p } }

// WithReport enables report rendering to outputDir using formatter.
func WithReport(formatter report.Formatter, outputDir string) Option {
	return func(r *Runner) {
		r.formatter = formatter
		r.outputDir = outputDir
	}
}

// WithLogger attaches a logger; without this option the Runner logs
// nothing (zerolog.Nop()).
func WithLogger(logger zerolog.Logger) Option { return func(r *Runner) { r.logger = logger } }

// WithLogFile records the path of a sibling run log so it is carried in
// the rendered SequenceResult.LogFile.
func WithLogFile(path string) Option { return func(r *Runner) { r.logFile = path } }

// Runner binds a Definition's handlers to a loaded SequenceConfig and runs
// them in order.
type Runner struct {
	def      Definition
	handlers []Handler
	steps    []types.Step

	stopAtStepFail bool

	bus       Publisher
	formatter report.Formatter
	outputDir string
	logFile   string
	logger    zerolog.Logger
}

// New binds def's handlers against cfg, validating the binding at
// construction: a count mismatch is a StepCountError, a name mismatch at
// any position is a StepsConfigError, and any handler registered with an
// empty name is also a StepsConfigError.
func New(def Definition, cfg *config.SequenceConfig, opts ...Option) (*Runner, error) {
	handlers := append([]Handler(nil), def.Handlers()...)
	sort.SliceStable(handlers, func(i, j int) bool { return handlers[i].Order < handlers[j].Order })

	for _, h := range handlers {
		if h.StepName == "" {
			return nil, &errs.StepsConfigError{Reason: "handler registered without a step name"}
		}
	}

	if len(handlers) != len(cfg.Steps) {
		return nil, &errs.StepCountError{Registered: len(handlers), Configured: len(cfg.Steps)}
	}
	for i, h := range handlers {
		if h.StepName != cfg.Steps[i].Name {
			return nil, &errs.StepsConfigError{
				Reason: fmt.Sprintf("declared step with name %q differs from config %q at position %d",
					h.StepName, cfg.Steps[i].Name, i),
			}
		}
	}

	r := &Runner{
		def:            def,
		handlers:       handlers,
		steps:          cfg.Steps,
		stopAtStepFail: cfg.StopAtStepFail,
		bus:            noopPublisher{},
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes the bound handlers in order. It returns the finalised SequenceResult together with
// whatever error stopped the run early, if any: a *errs.SpecMismatch, an
// *errs.ErrUnsupportedValue, a *errs.StepFailure, or the handler's own
// error.
func (r *Runner) Run(ctx context.Context) (*types.SequenceResult, error) {
	startTime := time.Now().UTC()
	stepResults := make([]types.StepResult, 0, len(r.handlers))

	runErr := r.runSteps(ctx, &stepResults)

	endTime := time.Now().UTC()
	result := &types.SequenceResult{
		StartTime:   startTime,
		EndTime:     endTime,
		LogFile:     r.logFile,
		Verdict:     types.OverallVerdict(stepResults),
		StepResults: stepResults,
	}

	if r.formatter != nil {
		if err := r.writeReport(result); err != nil {
			r.logger.Error().Err(err).Msg("failed to write report")
		}
	}

	return result, runErr
}

func (r *Runner) runSteps(ctx context.Context, stepResults *[]types.StepResult) error {
	for i, h := range r.handlers {
		step := r.steps[i]

		r.bus.PublishStepStarted(step)
		r.logger.Info().Str("step", step.Name).Msg("start step")

		stepResult := types.StepResult{ID: step.ID, Name: step.Name, StartTime: time.Now().UTC()}

		value, handlerErr := h.Run(ctx)

		var matchErr error
		if handlerErr == nil {
			var measurements []types.Measurement
			var verdict types.Verdict
			measurements, verdict, matchErr = specmatch.Match(value, step.Specs, &r.logger)
			if matchErr == nil {
				stepResult.Results = measurements
				stepResult.Verdict = verdict
			} else {
				// A spec mismatch is a programming error in the step/spec
				// pairing, not a measured failure; it aborts the step the
				// same way an uncaught handler error does.
				stepResult.Verdict = types.VerdictAborted
				r.logger.Error().Err(matchErr).Str("step", step.Name).Msg("spec mismatch")
			}
		} else {
			stepResult.Verdict = types.VerdictAborted
			r.logger.Error().Err(handlerErr).Str("step", step.Name).Msg("unexpected error during step")
		}

		stepResult.EndTime = time.Now().UTC()
		*stepResults = append(*stepResults, stepResult)
		r.bus.PublishStepEnded(stepResult)
		r.logger.Info().Str("step", step.Name).Str("verdict", string(stepResult.Verdict)).Msg("end step")

		// A SpecMismatch is always fatal, regardless of ignore_fail or
		// stop_at_step_fail.
		if matchErr != nil {
			return matchErr
		}

		if handlerErr != nil {
			if step.IgnoreFail {
				r.logger.Warn().Str("step", step.Name).Msg("ignoring failure due to ignore_fail=true")
				continue
			}
			if r.stopAtStepFail {
				return handlerErr
			}
			r.logger.Warn().Str("step", step.Name).Msg("continuing after failure because stop_at_step_fail is false")
			continue
		}

		if stepResult.Verdict == types.VerdictFailed {
			if step.IgnoreFail {
				r.logger.Warn().Str("step", step.Name).Msg("step failed but will be ignored due to ignore_fail=true")
				continue
			}
			if r.stopAtStepFail {
				return &errs.StepFailure{StepName: step.Name}
			}
		}
	}
	return nil
}

func (r *Runner) writeReport(result *types.SequenceResult) error {
	data, err := r.formatter.Format(result)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	name := result.StartTime.Format("20060102_150405") + "_report" + r.formatter.Ext()
	path := filepath.Join(r.outputDir, name)
	return os.WriteFile(path, data, 0o644)
}
