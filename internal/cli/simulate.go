package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/blockduel/internal/harness"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Seed uint64
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Play a scripted match without a server",
		Long: `Play a scripted two-player match and print the trace and final boards.

The scenario file fixes the board size, the piece draws of each side and the
turns to play. Use "-" to read the scenario from standard input. The command
exits with status 1 when a scenario assertion fails.

Example:
  blockduel simulate ./scenarios/single_line_attack.yaml
  blockduel simulate --seed 7 --format json ./scenarios/random.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for unscripted sides (overrides the scenario)")

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	scenario, err := readScenario(path, cmd.InOrStdin())
	if err != nil {
		_ = out.Error(CodeScenario, "failed to load scenario", err.Error())
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if cmd.Flags().Changed("seed") {
		scenario.Seed = opts.Seed
	}
	out.VerboseLog("playing %s: %d turns on %dx%d", scenario.Name, len(scenario.Turns), scenario.Board.Width, scenario.Board.Height)

	logger := slog.New(slog.DiscardHandler)
	if opts.Verbose {
		logger = slog.New(slog.NewTextHandler(out.GetErrWriter(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	result, err := harness.RunWithLogger(scenario, logger)
	if err != nil {
		_ = out.Error(CodeScenario, "failed to play scenario", err.Error())
		return WrapExitError(ExitCommandError, "failed to play scenario", err)
	}

	if opts.Format == "json" {
		if err := out.ScenarioResult(scenario.Name, result); err != nil {
			return err
		}
	} else if err := out.ScenarioResult(scenario.Name, result.Text()); err != nil {
		return err
	}

	if !result.Pass {
		if opts.Format == "text" {
			_ = out.Error(CodeAssertion, fmt.Sprintf("%d assertion(s) failed", len(result.Errors)), strings.Join(result.Errors, "\n"))
		}
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s: %d assertion(s) failed", scenario.Name, len(result.Errors)))
	}
	return nil
}

func readScenario(path string, stdin io.Reader) (*harness.Scenario, error) {
	if path == "-" {
		return harness.ParseScenario(stdin)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("scenario file not found: %s", path)
	}
	return harness.LoadScenario(path)
}
