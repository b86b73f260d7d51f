// Command benderr-run is the test-process front end: it binds one
// registered sequence to a step config file, runs it to completion, and
// prints each step's verdict as it ends.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aoyoqui/benderr/pkg/appconfig"
	"github.com/aoyoqui/benderr/pkg/config"
	"github.com/aoyoqui/benderr/pkg/errs"
	"github.com/aoyoqui/benderr/pkg/eventbus"
	"github.com/aoyoqui/benderr/pkg/logging"
	"github.com/aoyoqui/benderr/pkg/report"
	"github.com/aoyoqui/benderr/pkg/sequence"
	"github.com/aoyoqui/benderr/pkg/types"

	_ "github.com/aoyoqui/benderr/internal/demo"
)

const (
	exitPassed     = 0
	exitStepFailed = 1
	exitConfigErr  = 2
	exitRuntimeErr = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var sequenceName, configPath, outputDir, profile string
	var configDirs []string

	cmd := &cobra.Command{
		Use:           "benderr-run",
		Short:         "Run a registered test sequence against a step configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&sequenceName, "sequence", "", "registered sequence name")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a steps config JSON file")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory reports and run logs are written under, overriding config's output_dir")
	cmd.Flags().StringVar(&profile, "profile", "dev", "configuration profile (base.yaml + <profile>.yaml)")
	cmd.Flags().StringSliceVar(&configDirs, "config-dir", []string{"./config"}, "directories searched for base.yaml/<profile>.yaml")
	_ = cmd.MarkFlagRequired("sequence")
	_ = cmd.MarkFlagRequired("config")

	exitCode := exitConfigErr
	ran := false
	cmd.RunE = func(*cobra.Command, []string) error {
		ran = true
		exitCode = execute(sequenceName, configPath, outputDir, profile, configDirs)
		return nil
	}
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil && !ran {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigErr
	}
	return exitCode
}

func execute(sequenceName, configPath, outputDir, profile string, configDirs []string) int {
	appCfg, err := appconfig.Load(profile, configDirs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading configuration:", err)
		return exitConfigErr
	}
	if outputDir == "" {
		outputDir = appCfg.OutputDir
	}
	if outputDir == "" {
		outputDir = "."
	}

	startTime := time.Now().UTC()
	logger, logPath, closeLog, err := logging.Setup(appCfg.Logging, outputDir, startTime)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setting up logging:", err)
		return exitConfigErr
	}
	defer closeLog()

	factory, err := sequence.Lookup(sequenceName)
	if err != nil {
		logger.Error().Err(err).Msg("sequence lookup failed")
		return exitConfigErr
	}

	cfg, err := config.LoadSteps(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("loading step configuration failed")
		return exitConfigErr
	}

	addr := appCfg.EventBus.SocketPath
	if addr == "" {
		addr = eventbus.DefaultAddr(outputDir)
	}
	bus := eventbus.NewServer(addr, logger)
	busCtx, cancelBus := context.WithCancel(context.Background())
	defer cancelBus()
	go func() {
		if err := bus.Serve(busCtx); err != nil {
			logger.Debug().Err(err).Msg("event bus server stopped")
		}
	}()
	defer func() { _ = bus.Close() }()

	logger = logging.WithBusHook(logger, bus)

	renderer := &consoleRenderer{}
	opts := []sequence.Option{
		sequence.WithPublisher(rendererPublisher{bus: bus, renderer: renderer}),
		sequence.WithLogger(logger),
	}
	if appCfg.ReportEnabled {
		opts = append(opts, sequence.WithReport(report.JSONFormatter{}, outputDir))
	}
	if logPath != "" {
		opts = append(opts, sequence.WithLogFile(logPath))
	}
	runner, err := sequence.New(factory(), cfg, opts...)
	if err != nil {
		logger.Error().Err(err).Msg("binding sequence to configuration failed")
		return exitConfigErr
	}

	result, runErr := runner.Run(context.Background())
	if runErr != nil {
		var stepFailure *errs.StepFailure
		var specMismatch *errs.SpecMismatch
		if errors.As(runErr, &stepFailure) || errors.As(runErr, &specMismatch) {
			logger.Warn().Err(runErr).Msg("sequence stopped early")
			return exitStepFailed
		}
		logger.Error().Err(runErr).Msg("sequence aborted")
		return exitRuntimeErr
	}

	if result.Verdict != types.VerdictPassed {
		return exitStepFailed
	}
	return exitPassed
}

// consoleRenderer prints each step's lifecycle, the Go port of br_cli's
// step_started/step_ended signal handlers.
type consoleRenderer struct{}

func (consoleRenderer) stepStarted(step types.Step) {
	fmt.Printf("=== Step Start: %s ===\n", step.Name)
}

func (consoleRenderer) stepEnded(result types.StepResult) {
	icon := "OK"
	if result.Verdict != types.VerdictPassed {
		icon = "FAIL"
	}
	fmt.Printf("[%s] %s (%s)\n", icon, result.Name, result.Verdict)
	for _, m := range result.Results {
		mark := "pass"
		if !m.Passed {
			mark = "fail"
		}
		fmt.Printf("  %s %s: %v\n", mark, m.Spec.Name, m.Value)
	}
}

// rendererPublisher fans a step event out to both the console renderer
// and the event bus, so a local CLI run still produces a live bus stream
// any other subscriber could attach to.
type rendererPublisher struct {
	bus      *eventbus.Server
	renderer *consoleRenderer
}

func (p rendererPublisher) PublishStepStarted(step types.Step) {
	p.renderer.stepStarted(step)
	p.bus.PublishStepStarted(step)
}

func (p rendererPublisher) PublishStepEnded(result types.StepResult) {
	p.renderer.stepEnded(result)
	p.bus.PublishStepEnded(result)
}

