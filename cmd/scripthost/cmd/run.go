package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/module/scripthost/harness"
	"github.com/module/scripthost/internal/eval"
)

func newRunCmd() *cobra.Command {
	var scriptPath string
	var advanceMs int64

	runCmd := &cobra.Command{
		Use:   "run <html-file>",
		Short: "Load an HTML fixture, run its inline scripts, and report what happened",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runFixture(args[0], scriptPath, advanceMs)
		},
	}
	runCmd.Flags().StringVar(&scriptPath, "script", "",
		"an additional driver script to run against the page after its own inline scripts")
	runCmd.Flags().Int64Var(&advanceMs, "advance-ms", 0,
		"advance the virtual clock by this many milliseconds after running scripts, firing any due timers")
	return runCmd
}

// runFixture loads htmlPath through defaultFs (afero, swapped for a
// MemMapFs in tests), runs it, optionally runs a driver script, advances
// the clock, and reports everything the harness's take_* logs accumulated —
// the CLI equivalent of the assertions a Go test would make directly
// against a *harness.Harness.
func runFixture(htmlPath, scriptPath string, advanceMs int64) error {
	src, err := afero.ReadFile(defaultFs, htmlPath)
	if err != nil {
		return fmt.Errorf("reading %q: %w", htmlPath, err)
	}
	h, err := harness.FromHTML(string(src), harness.WithLogOutput(logger.Out, logger.Level))
	if err != nil {
		return err
	}
	defer h.Close()

	if scriptPath != "" {
		driverSrc, err := afero.ReadFile(defaultFs, scriptPath)
		if err != nil {
			return fmt.Errorf("reading %q: %w", scriptPath, err)
		}
		if err := h.RunScript(string(driverSrc)); err != nil {
			return err
		}
	}

	if advanceMs > 0 {
		h.AdvanceTime(advanceMs)
	}

	report(h)
	return nil
}

func report(h *harness.Harness) {
	for _, msg := range h.TakeAlertMessages() {
		fmt.Fprintf(os.Stdout, "alert: %s\n", msg)
	}
	for _, nav := range h.TakeLocationNavigations() {
		fmt.Fprintf(os.Stdout, "navigate(%s): %s -> %s\n", nav.Kind, nav.From, nav.To)
	}
	for _, dl := range h.TakeDownloads() {
		fmt.Fprintf(os.Stdout, "download: %s\n", dl)
	}
	for _, rej := range h.TakeUnhandledRejections() {
		fmt.Fprintf(os.Stdout, "unhandled rejection: %s\n", eval.ToDisplayString(rej))
	}
}
