package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/domain"
	"github.com/testforge/shopsuite/internal/runner"
	"github.com/testforge/shopsuite/internal/scenarios"
)

// Colors
var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
	bold   = color.New(color.Bold)
	dim    = color.New(color.Faint)
)

func newProgressBar(n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("   Running..."),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func printHeader(cfg *config.Config, runID string, n int) {
	fmt.Println()
	bold.Printf("━━━ shopsuite run %s ━━━\n", runID)
	dim.Printf("    %s · %s · %d scenario(s) · %d worker(s)\n",
		cfg.BaseURL, cfg.Browser.Engine, n, cfg.Runner.Workers)
	fmt.Println()
}

func statusColor(s runner.Status) (*color.Color, string) {
	switch s {
	case runner.StatusPassed:
		return green, "✓"
	case runner.StatusFlaky:
		return yellow, "~"
	case runner.StatusSkipped:
		return dim, "-"
	default:
		return red, "✗"
	}
}

func printResults(summary runner.Summary) {
	fmt.Println()
	for _, res := range summary.Results {
		c, icon := statusColor(res.Status)
		c.Printf("  %s %-6s", icon, res.ID)
		fmt.Printf(" %-60s", truncate(res.Name, 60))
		dim.Printf(" %s", res.Duration.Round(10*time.Millisecond))
		if res.Attempts > 1 {
			dim.Printf(" (%d attempts)", res.Attempts)
		}
		fmt.Println()

		if res.Err != nil && res.Status != runner.StatusSkipped {
			dim.Printf("      [%s] %v\n", domain.GetErrorCode(res.Err), res.Err)
		}
		for _, a := range res.Artifacts {
			dim.Printf("      screenshot: %s\n", a)
		}
	}
}

func printSummary(summary runner.Summary) {
	fmt.Println()
	c := green
	verdict := "✓ PASSED"
	if summary.Failed() {
		c = red
		verdict = "✗ FAILED"
	}
	c.Printf("%s", verdict)
	fmt.Printf("  %d passed, %d flaky, %d failed, %d skipped in %s\n",
		summary.Count(runner.StatusPassed),
		summary.Count(runner.StatusFlaky),
		summary.Count(runner.StatusFailed),
		summary.Count(runner.StatusSkipped),
		summary.Duration.Round(time.Second),
	)
}

// printCatalog lists scenarios grouped by suite, in catalog order
func printCatalog(w io.Writer, list []scenarios.Scenario) {
	bySuite := make(map[scenarios.Suite][]scenarios.Scenario)
	for _, sc := range list {
		bySuite[sc.Suite] = append(bySuite[sc.Suite], sc)
	}

	for _, suite := range scenarios.Suites() {
		group := bySuite[suite]
		if len(group) == 0 {
			continue
		}
		cyan.Fprintf(w, "%s (%d)\n", suite, len(group))
		for _, sc := range group {
			fmt.Fprintf(w, "  %-6s %s\n", sc.ID, sc.Name)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}
