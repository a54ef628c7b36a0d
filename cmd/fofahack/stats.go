package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"fofahack/internal/search/unified"
)

// printStats renders the end-of-run summary to stderr so it never mixes
// with piped result output.
func printStats(stats unified.Stats, resultCount int) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	fmt.Fprintln(os.Stderr)
	bold.Fprintln(os.Stderr, "Run summary")
	fmt.Fprintf(os.Stderr, "  run id:    %s\n", stats.RunID)
	fmt.Fprintf(os.Stderr, "  results:   %d\n", resultCount)
	fmt.Fprintf(os.Stderr, "  attempts:  %d\n", stats.Attempts)
	green.Fprintf(os.Stderr, "  successes: %d (%s)\n", stats.Successes, stats.SuccessRate())
	if stats.Failures > 0 {
		red.Fprintf(os.Stderr, "  failures:  %d\n", stats.Failures)
	}
	if stats.Bans > 0 {
		yellow.Fprintf(os.Stderr, "  bans:      %d\n", stats.Bans)
	}
	fmt.Fprintf(os.Stderr, "  mode:      %s\n", stats.Mode)
	if stats.Proxy != "" {
		fmt.Fprintf(os.Stderr, "  proxy:     %s\n", stats.Proxy)
	}
	if stats.StoppedEarly {
		red.Fprintln(os.Stderr, "  stopped early: repeated bans/failures")
	}
}
