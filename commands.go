package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gridmdp/reinforcement"
	"gridmdp/report"
	"gridmdp/server"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath    string
	p1, p2        float64
	rewardUp      float64
	rewardDown    float64
	rewardRight   float64
	rewardLeft    float64
	gamma, theta  float64
	maxIterations int
	interactive   bool
	noColor       bool
	plotPath      string
	chartPath     string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	defaults := reinforcement.DefaultConfig()

	root := &cobra.Command{
		Use:           "gridmdp",
		Short:         "Solve the slip gridworld with policy and value iteration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "gridMDP yaml config file")
	flags.Float64Var(&opts.p1, "p1", defaults.Slip.Forward, "probability of moving in the intended direction")
	flags.Float64Var(&opts.p2, "p2", defaults.Slip.Stay, "probability of staying put on a valid move")
	flags.Float64Var(&opts.rewardUp, "reward-up", defaults.Rewards.Up, "reward for moving up")
	flags.Float64Var(&opts.rewardDown, "reward-down", defaults.Rewards.Down, "reward for moving down")
	flags.Float64Var(&opts.rewardRight, "reward-right", defaults.Rewards.Right, "reward for moving right")
	flags.Float64Var(&opts.rewardLeft, "reward-left", defaults.Rewards.Left, "reward for moving left")
	flags.Float64Var(&opts.gamma, "gamma", reinforcement.DefaultGamma, "discount factor")
	flags.Float64Var(&opts.theta, "theta", reinforcement.DefaultTheta, "convergence threshold")
	flags.IntVar(&opts.maxIterations, "max-iterations", reinforcement.DefaultMaxIterations, "cap on every solver loop")
	flags.BoolVar(&opts.interactive, "interactive", false, "prompt for the slip probabilities and rewards")
	flags.BoolVar(&opts.noColor, "no-color", false, "print the policy without color")
	flags.StringVar(&opts.plotPath, "plot", "", "save a png of the delta per sweep")
	flags.StringVar(&opts.chartPath, "chart", "", "save an html chart of the delta per sweep")

	root.AddCommand(
		solveCommand(opts, "policy", reinforcement.PolicyIterationAlgorithm, "Run policy iteration"),
		solveCommand(opts, "value", reinforcement.ValueIterationAlgorithm, "Run value iteration"),
		solveCommand(opts, "compare", reinforcement.CompareAlgorithm, "Run both solvers and cross-check them"),
		serveCommand(opts),
	)
	return root
}

func solveCommand(opts *options, use string, alg reinforcement.Algorithm, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return solve(cmd.Context(), cmd.OutOrStdout(), alg, cfg, opts, nil)
		},
	}
}

func serveCommand(opts *options) *cobra.Command {
	var (
		addr  string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the configured solver while serving a live view of it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			alg, err := reinforcement.ParseAlgorithm(cfg.Algorithm)
			if err != nil {
				return err
			}
			problem, err := cfg.Problem()
			if err != nil {
				return err
			}

			appCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			srv, err := server.NewServer(appCtx, addr, problem)
			if err != nil {
				return err
			}

			observe := srv.Observe
			if delay > 0 {
				observe = func(ctx context.Context, pr reinforcement.Progress) {
					srv.Observe(ctx, pr)
					select {
					case <-time.After(delay):
					case <-ctx.Done():
					}
				}
			}

			group, groupCtx := errgroup.WithContext(appCtx)
			group.Go(func() error {
				return srv.Serve(groupCtx)
			})
			group.Go(func() error {
				err := solve(groupCtx, cmd.OutOrStdout(), alg, cfg, opts, observe)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				if err == nil {
					log.Println("solver finished, serving until interrupted")
				}
				return err
			})
			return group.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "http listen address")
	cmd.Flags().DurationVar(&delay, "delay", 50*time.Millisecond, "pause after each progress report, to watch the solver")
	return cmd
}

// loadConfig reads the config file, if any, and applies explicitly set flags and the
// interactive prompt on top of it.
func loadConfig(cmd *cobra.Command, opts *options) (cfg *reinforcement.SolverConfig, err error) {
	cfg = reinforcement.DefaultConfig()
	if opts.configPath != "" {
		if cfg, err = reinforcement.FromYaml(opts.configPath); err != nil {
			return nil, fmt.Errorf("config %s: %w", opts.configPath, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("p1") {
		cfg.Slip.Forward = opts.p1
	}
	if flags.Changed("p2") {
		cfg.Slip.Stay = opts.p2
	}
	if flags.Changed("reward-up") {
		cfg.Rewards.Up = opts.rewardUp
	}
	if flags.Changed("reward-down") {
		cfg.Rewards.Down = opts.rewardDown
	}
	if flags.Changed("reward-right") {
		cfg.Rewards.Right = opts.rewardRight
	}
	if flags.Changed("reward-left") {
		cfg.Rewards.Left = opts.rewardLeft
	}
	if flags.Changed("gamma") {
		cfg.SetHyperParam("gamma", opts.gamma)
	}
	if flags.Changed("theta") {
		cfg.SetHyperParam("theta", opts.theta)
	}
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = opts.maxIterations
	}

	if opts.interactive {
		if err = promptParams(cmd.InOrStdin(), cmd.OutOrStdout(), cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// solve runs alg, prints its summary to w, and writes any requested reports. Hitting
// the iteration cap is reported but not fatal.
func solve(
	ctx context.Context,
	w io.Writer,
	alg reinforcement.Algorithm,
	cfg *reinforcement.SolverConfig,
	opts *options,
	observe reinforcement.ProgressFunc,
) error {
	problem, err := cfg.Problem()
	if err != nil {
		return err
	}

	runCtx, cancel, err := cfg.WithDeadline(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	progressFn := reinforcement.Chain(logProgress, observe)

	var results []*reinforcement.Result
	switch alg {
	case reinforcement.PolicyIterationAlgorithm:
		result, solveErr := reinforcement.PolicyIteration(runCtx, problem, progressFn)
		if err = checkSolve(solveErr); err != nil {
			return err
		}
		results = append(results, result)
		err = printResult(w, problem, result, !opts.noColor)
	case reinforcement.ValueIterationAlgorithm:
		result, solveErr := reinforcement.ValueIteration(runCtx, problem, progressFn)
		if err = checkSolve(solveErr); err != nil {
			return err
		}
		results = append(results, result)
		err = printResult(w, problem, result, !opts.noColor)
	case reinforcement.CompareAlgorithm:
		cmp, solveErr := reinforcement.Compare(runCtx, problem, progressFn, reinforcement.DefaultTolerance)
		if cmp == nil {
			return solveErr
		}
		if err = checkSolve(solveErr); err != nil {
			return err
		}
		results = append(results, cmp.Policy, cmp.Value)
		err = printComparison(w, problem, cmp, !opts.noColor)
	default:
		return fmt.Errorf("%w: %q", reinforcement.ErrUnknownAlgorithm, alg)
	}
	if err != nil {
		return err
	}

	return writeReports(opts, results)
}

// checkSolve lets a non-convergence or an expired deadline through with a warning, since
// the solvers still return their best-effort result.
func checkSolve(err error) error {
	if errors.Is(err, reinforcement.ErrNotConverged) || errors.Is(err, context.DeadlineExceeded) {
		log.Println("warning:", err)
		return nil
	}
	return err
}

func writeReports(opts *options, results []*reinforcement.Result) error {
	if opts.plotPath != "" {
		if err := report.PlotDeltas(opts.plotPath, results...); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		log.Println("saved plot to", opts.plotPath)
	}
	if opts.chartPath != "" {
		if err := report.ChartDeltasToFile(opts.chartPath, results...); err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		log.Println("saved chart to", opts.chartPath)
	}
	return nil
}
