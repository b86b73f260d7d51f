// Command benderr-agent is the supervisor front end: it loads a plan,
// starts each entry in order as soon as the previous one completes, and
// prints a status table at shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aoyoqui/benderr/pkg/agent"
	"github.com/aoyoqui/benderr/pkg/appconfig"
	"github.com/aoyoqui/benderr/pkg/config"
	"github.com/aoyoqui/benderr/pkg/errs"
	"github.com/aoyoqui/benderr/pkg/logging"
)

const (
	exitAllCompleted = 0
	exitAnyFailed    = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var planPath, profile string
	var configDirs []string

	cmd := &cobra.Command{
		Use:           "benderr-agent",
		Short:         "Run a test plan's entries strictly in order",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "path to a plan JSON file")
	cmd.Flags().StringVar(&profile, "profile", "dev", "configuration profile (base.yaml + <profile>.yaml)")
	cmd.Flags().StringSliceVar(&configDirs, "config-dir", []string{"./config"}, "directories searched for base.yaml/<profile>.yaml")
	_ = cmd.MarkFlagRequired("plan")

	exitCode := 2
	ran := false
	cmd.RunE = func(*cobra.Command, []string) error {
		ran = true
		exitCode = execute(planPath, profile, configDirs)
		return nil
	}
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil && !ran {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return exitCode
}

func execute(planPath, profile string, configDirs []string) int {
	appCfg, err := appconfig.Load(profile, configDirs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading configuration:", err)
		return exitAnyFailed
	}

	logger, _, closeLog, err := logging.Setup(appCfg.Logging, appCfg.OutputDir, time.Now().UTC())
	if err != nil {
		fmt.Fprintln(os.Stderr, "setting up logging:", err)
		return exitAnyFailed
	}
	defer closeLog()

	plan, err := config.LoadPlan(planPath)
	if err != nil {
		logger.Error().Err(err).Msg("loading plan failed")
		return exitAnyFailed
	}

	sched := agent.New(plan, agent.NewLocalProvisioner(logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		next := sched.NextAllowed()
		if next == -1 {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if err := sched.Start(ctx, next); err != nil {
			var allCompleted *errs.AllCompleted
			if errors.As(err, &allCompleted) {
				break
			}
			logger.Error().Err(err).Int("index", next).Msg("failed to start plan entry")
			return exitAnyFailed
		}
		waitForEntryDone(ctx, sched, next)
	}

	if ctx.Err() != nil {
		logger.Warn().Msg("shutdown requested, terminating running entries")
		if err := sched.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("error terminating plan entries")
		}
	}

	return printStatusTable(sched)
}

func waitForEntryDone(ctx context.Context, sched *agent.Scheduler, index int) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := sched.StatusTable()[index].Status
			if status == agent.StatusCompleted || status == agent.StatusFailed {
				return
			}
		}
	}
}

func printStatusTable(sched *agent.Scheduler) int {
	exitCode := exitAllCompleted
	fmt.Println("id\tsequence\tstatus\tpid\tstarted_at\tended_at")
	for _, entry := range sched.StatusTable() {
		if entry.Status == agent.StatusFailed {
			exitCode = exitAnyFailed
		}
		fmt.Printf("%s\t%s\t%s\t%d\t%s\t%s\n",
			entry.ID, entry.SequenceName, entry.Status, entry.PID,
			formatTime(entry.StartedAt), formatTime(entry.EndedAt))
	}
	return exitCode
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05.000000")
}
