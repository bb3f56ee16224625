package cmd

import (
	"context"
	"io"
	"os"

	"github.com/prettymuchbryce/testwire/internal/capture"
	"github.com/prettymuchbryce/testwire/internal/gotest"
	"github.com/prettymuchbryce/testwire/internal/report"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Report a saved `go test -json` stream",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closeIn, err := openInput(args)
		if err != nil {
			return err
		}
		defer closeIn()

		reporter, err := newReporter(cfg, os.Stdout, capture.BufferOpener{})
		if err != nil {
			return err
		}

		summary, err := convertStream(cmd.Context(), reporter, in, os.Stderr)
		if err != nil {
			return err
		}
		if summary.Failures() {
			return errTestsFailed
		}
		return nil
	},
}

// convertStream reports a complete test2json stream. The whole stream is
// read first so the suite start carries the real test count.
func convertStream(ctx context.Context, r report.Reporter, in io.Reader, stray io.Writer) (gotest.Summary, error) {
	events, err := gotest.ReadAll(in)
	if err != nil {
		return gotest.Summary{}, err
	}

	driver := gotest.NewDriver(r, stray)
	if err := driver.Start(ctx, gotest.CountEvents(events)); err != nil {
		return gotest.Summary{}, err
	}
	for _, ev := range events {
		if err := driver.Handle(ctx, ev); err != nil {
			return driver.Summary(), err
		}
	}
	if err := driver.Finish(ctx); err != nil {
		return driver.Summary(), err
	}
	return driver.Summary(), nil
}

// openInput opens the file named by args[0], or stdin for "-" or no args.
func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
