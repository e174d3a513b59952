package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/point-planner/internal/obs"
)

// Exit codes returned by Execute.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // no plan found, search interrupted
	ExitCommandError = 2 // bad flags, unreadable params file, invalid parameters
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func wrapExit(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// ExitCode extracts the exit code from err. Errors that are not ExitErrors map
// to ExitCommandError since cobra reports flag problems that way.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format   string
	LogLevel string

	out    io.Writer
	errOut io.Writer
	logger zerolog.Logger
}

var validFormats = []string{"table", "json"}

// NewRootCommand builds the planner command tree writing results to out and
// diagnostics to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := &RootOptions{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Plan point-optimal purchases",
		Long: `Plan how to split the purchase of N identical items into orders so that
the total cash paid is minimal, redeeming loyalty points earned by earlier
orders against later ones.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return wrapExit(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats), nil)
			}
			opts.logger = obs.NewLoggerTo(opts.errOut, "console", opts.LogLevel)
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "table", "output format (table|json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "diagnostic log level written to stderr")

	cmd.AddCommand(NewSolveCommand(opts))
	return cmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
// SIGINT and SIGTERM cancel a running search; the best plan found so far is
// still printed when one exists.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return ExitCode(err)
	}
	return ExitSuccess
}
