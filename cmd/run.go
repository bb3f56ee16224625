package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/prettymuchbryce/testwire/internal/capture"
	"github.com/prettymuchbryce/testwire/internal/gotest"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errTestsFailed makes the process exit non-zero. Execute does not print it:
// the report already shows the failures.
var errTestsFailed = errors.New("tests failed")

var runGoBinary string

var runCmd = &cobra.Command{
	Use:   "run [packages] [-- go test flags]",
	Short: "Run go test and report progress on stdout",
	Long: "Run `go test -json` for the given packages (default ./...) and report each\n" +
		"test as it finishes. Arguments after -- are passed to go test.",
	RunE: func(cmd *cobra.Command, args []string) error {
		pkgs, goFlags := splitArgs(cmd, args)

		reporter, err := newReporter(cfg, os.Stdout, capture.BufferOpener{})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		total := countTests(ctx, pkgs, goFlags)

		driver := gotest.NewDriver(reporter, os.Stderr)
		if err := driver.Start(ctx, total); err != nil {
			return err
		}

		testArgs := append([]string{"test", "-json"}, goFlags...)
		testArgs = append(testArgs, pkgs...)
		goTest := exec.CommandContext(ctx, runGoBinary, testArgs...)

		stdout, err := goTest.StdoutPipe()
		if err != nil {
			return err
		}
		stderr, err := goTest.StderrPipe()
		if err != nil {
			return err
		}
		if err := goTest.Start(); err != nil {
			return fmt.Errorf("failed to start go test: %w", err)
		}

		var g errgroup.Group
		g.Go(func() error {
			err := driver.Stream(ctx, stdout)
			if err != nil {
				// Nobody drains stdout anymore; stop go test.
				cancel()
			}
			return err
		})
		g.Go(func() error {
			_, err := io.Copy(os.Stderr, stderr)
			return err
		})
		streamErr := g.Wait()
		waitErr := goTest.Wait()

		if streamErr != nil {
			return streamErr
		}
		if err := driver.Finish(ctx); err != nil {
			return err
		}

		var exitErr *exec.ExitError
		if waitErr != nil && !errors.As(waitErr, &exitErr) {
			return fmt.Errorf("go test failed: %w", waitErr)
		}
		if waitErr != nil || driver.Summary().Failures() {
			return errTestsFailed
		}
		return nil
	},
}

// splitArgs separates package patterns from flags given after "--".
func splitArgs(cmd *cobra.Command, args []string) (pkgs, flags []string) {
	pkgs = args
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		pkgs, flags = args[:dash], args[dash:]
	}
	if len(pkgs) == 0 {
		pkgs = []string{"./..."}
	}
	return pkgs, flags
}

// countTests lists the tests that go test is about to run. A failed listing
// reports zero; the run itself shows the build error.
func countTests(ctx context.Context, pkgs, goFlags []string) int {
	listArgs := append([]string{"test", "-list", listPattern(goFlags)}, goFlags...)
	listArgs = append(listArgs, pkgs...)

	var out bytes.Buffer
	list := exec.CommandContext(ctx, runGoBinary, listArgs...)
	list.Stdout = &out
	if err := list.Run(); err != nil {
		slog.Warn("failed to list tests", "error", err)
	}

	n, err := gotest.CountListed(&out)
	if err != nil {
		slog.Warn("failed to count tests", "error", err)
	}
	slog.Debug("listed tests", "count", n)
	return n
}

// listPattern returns the -list regexp matching what go test will run: the
// top-level part of the last -run flag, or "." when there is none.
func listPattern(goFlags []string) string {
	pattern := "."
	for i := 0; i < len(goFlags); i++ {
		flag := goFlags[i]
		if !strings.HasPrefix(flag, "-") {
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(flag, "-"), "=")
		if name != "run" && name != "test.run" {
			continue
		}
		if !hasValue {
			if i+1 >= len(goFlags) {
				break
			}
			i++
			value = goFlags[i]
		}
		if top, _, _ := strings.Cut(value, "/"); top != "" {
			pattern = top
		}
	}
	return pattern
}

func init() {
	runCmd.Flags().StringVar(&runGoBinary, "go", "go", "go binary to run")
	rootCmd.AddCommand(runCmd)
}
