package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/point-planner/internal/planner"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions

	ConfigPath  string
	UnitPrice   int64
	TaxRatePct  int64
	RatePct     int64
	MinTotal    int64
	MinCash     int64
	Basis       string
	Rounding    string
	NoCap       bool
	Consolidate bool
	Objective   string
	StartPoints int64
	TimeLimit   time.Duration
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}
	defaults := planner.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "solve N",
		Short: "Find the cheapest way to buy N items",
		Long: `Find the cheapest way to buy N items.

Parameters come from the built-in defaults, then the --config file (YAML or
TOML), then any flag given explicitly on the command line.

Example:
  planner solve 12
  planner solve 30 --basis cash --format json
  planner solve 8 --config params.yaml --consolidate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return wrapExit(ExitCommandError, fmt.Sprintf("N must be an integer, got %q", args[0]), nil)
			}
			cfg, err := opts.resolveConfig(cmd)
			if err != nil {
				return err
			}
			return runSolve(cmd.Context(), opts, cfg, n)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ConfigPath, "config", "", "params file (.yaml, .yml or .toml)")
	flags.Int64Var(&opts.UnitPrice, "unit", defaults.UnitPrice, "tax-included price of one item")
	flags.Int64Var(&opts.TaxRatePct, "tax", defaults.TaxRatePct, "tax rate in percent")
	flags.Int64Var(&opts.RatePct, "rate", defaults.PointRatePct, "points earned in percent of the tax-excluded cash")
	flags.Int64Var(&opts.MinTotal, "min", defaults.MinEligibleTotal, "threshold an order must reach to earn points")
	flags.Int64Var(&opts.MinCash, "min-cash", defaults.MinCashForPoints, "minimum cash paid for an order to earn points")
	flags.StringVar(&opts.Basis, "basis", string(defaults.Basis), "threshold basis (order_total|cash)")
	flags.StringVar(&opts.Rounding, "rounding", string(defaults.Rounding), "points rounding (ratio_floor|taxex_floor_then_rate)")
	flags.BoolVar(&opts.NoCap, "no-cap", false, "do not cap carried points at the remaining need")
	flags.BoolVar(&opts.Consolidate, "consolidate", defaults.Consolidate, "merge consecutive orders that redeem no points")
	flags.StringVar(&opts.Objective, "objective", string(defaults.Objective), "tie-break among cheapest plans (min_cash_then_max_leftover|min_cash_then_min_orders)")
	flags.Int64Var(&opts.StartPoints, "start-points", 0, "points balance held before the first order")
	flags.DurationVar(&opts.TimeLimit, "time-limit", 0, "stop searching after this long and print the best plan so far")

	return cmd
}

// resolveConfig layers defaults, the params file and explicitly set flags.
func (o *SolveOptions) resolveConfig(cmd *cobra.Command) (planner.Config, error) {
	cfg := planner.DefaultConfig()
	if o.ConfigPath != "" {
		loaded, err := LoadParamsFile(o.ConfigPath, cfg)
		if err != nil {
			return planner.Config{}, wrapExit(ExitCommandError, "load params file", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("unit") {
		cfg.UnitPrice = o.UnitPrice
	}
	if flags.Changed("tax") {
		cfg.TaxRatePct = o.TaxRatePct
	}
	if flags.Changed("rate") {
		cfg.PointRatePct = o.RatePct
	}
	if flags.Changed("min") {
		cfg.MinEligibleTotal = o.MinTotal
	}
	if flags.Changed("min-cash") {
		cfg.MinCashForPoints = o.MinCash
	}
	if flags.Changed("basis") {
		cfg.Basis = planner.Basis(o.Basis)
	}
	if flags.Changed("rounding") {
		cfg.Rounding = planner.Rounding(o.Rounding)
	}
	if flags.Changed("no-cap") {
		cfg.CapPointsToRemaining = !o.NoCap
	}
	if flags.Changed("consolidate") {
		cfg.Consolidate = o.Consolidate
	}
	if flags.Changed("objective") {
		cfg.Objective = planner.Objective(o.Objective)
	}
	return cfg, nil
}

func runSolve(ctx context.Context, opts *SolveOptions, cfg planner.Config, n int) error {
	params, err := planner.NewParams(cfg)
	if err != nil {
		return wrapExit(ExitCommandError, "invalid parameters", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}

	res, err := planner.Solve(ctx, params, planner.Request{Quantity: n, StartPoints: opts.StartPoints})
	switch {
	case errors.Is(err, planner.ErrInvalidQuantity), errors.Is(err, planner.ErrInvalidStartPoints),
		errors.Is(err, planner.ErrAmountOverflow):
		return wrapExit(ExitCommandError, "invalid request", err)
	case errors.Is(err, planner.ErrNoFeasiblePlan):
		fmt.Fprintln(opts.out, "no plan found")
		return wrapExit(ExitFailure, "no plan found", err)
	case err != nil:
		return wrapExit(ExitFailure, "search failed", err)
	}

	opts.logger.Debug().
		Int("quantity", n).
		Int("states_expanded", res.Meta.StatesExpanded).
		Int("states_admitted", res.Meta.StatesAdmitted).
		Dur("elapsed", res.Meta.Elapsed).
		Bool("exact", res.Meta.Exact).
		Msg("plan computed")
	if !res.Meta.Exact {
		opts.logger.Warn().Msg("search interrupted; plan may not be optimal")
	}

	if opts.Format == "json" {
		return renderJSON(opts.out, res)
	}
	return renderTable(opts.out, n, res)
}
