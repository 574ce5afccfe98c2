package testrunner

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	headerFmt   = color.New(color.FgBlue, color.Bold).SprintfFunc()
	passFmt     = color.New(color.FgGreen).SprintFunc()
	failFmt     = color.New(color.FgRed).SprintFunc()
	skipFmt     = color.New(color.FgYellow).SprintFunc()
	labelFmt    = color.New(color.Bold).SprintfFunc()
	wantFmt     = color.New(color.FgGreen).SprintfFunc()
	gotFmt      = color.New(color.FgRed).SprintfFunc()
	locationFmt = color.New(color.Faint).SprintfFunc()
)

const titleWidth = 40

// Label returns the display name of a category.
func (c Category) Label() string {
	return cases.Title(language.English).String(string(c))
}

// PrintSummary writes the category table and the failure details. With verbose
// every example gets a status line first.
func PrintSummary(w io.Writer, report *Report, verbose bool) {
	if verbose {
		printExamples(w, report)
	}

	fmt.Fprintf(w, "\n%s\n", headerFmt("=== Differential Test Summary ==="))
	fmt.Fprintf(w, "%-14s %6s %6s %6s %7s %7s\n", "Category", "Total", "Passed", "Failed", "Skipped", "Rate")

	for _, summary := range report.Categories {
		rate := fmt.Sprintf("%6.1f%%", summary.Rate)
		if len(summary.Failing) > 0 {
			rate = failFmt(rate)
		} else {
			rate = passFmt(rate)
		}

		fmt.Fprintf(w, "%-14s %6d %6d %6d %7d %s\n",
			summary.Category.Label(), summary.Total, summary.Passed, len(summary.Failing), summary.Skipped, rate)
	}

	fmt.Fprintf(w, "Examples: %d total, %d failed (%.3fs)\n",
		report.Total, report.FailedExamples(), report.Duration.Seconds())

	printFailures(w, report)

	if report.Passed() {
		fmt.Fprintf(w, "\n%s\n", passFmt("All examples passed! ✅"))
	} else {
		fmt.Fprintf(w, "\n%s\n", failFmt("Some examples failed! ❌"))
	}
}

func printExamples(w io.Writer, report *Report) {
	fmt.Fprintf(w, "%s\n", headerFmt("=== Examples ==="))

	for i := range report.Examples {
		result := &report.Examples[i]
		title := runewidth.FillRight(runewidth.Truncate(result.Title, titleWidth, "…"), titleWidth)

		marks := make([]string, 0, len(Categories))

		for _, category := range Categories {
			check, ok := result.Checks[category]
			if !ok {
				continue
			}

			marks = append(marks, statusMark(check)+" "+string(category))
		}

		fmt.Fprintf(w, "%4d  %s  %s\n", result.Index, title, strings.Join(marks, "  "))
	}
}

func statusMark(check *Check) string {
	switch {
	case check.Skipped:
		return skipFmt("-")
	case check.Passed:
		return passFmt("✓")
	default:
		return failFmt("✗")
	}
}

func printFailures(w io.Writer, report *Report) {
	if report.Passed() {
		return
	}

	fmt.Fprintf(w, "\n%s\n", headerFmt("=== Failures ==="))

	for _, summary := range report.Categories {
		if len(summary.Failing) == 0 {
			continue
		}

		fmt.Fprintf(w, "%s: %v\n", labelFmt("%s", summary.Category.Label()), summary.FailingIndices())
	}

	for i := range report.Examples {
		result := &report.Examples[i]
		if !result.Failed() {
			continue
		}

		fmt.Fprintf(w, "\n%s %s\n", labelFmt("#%d %s", result.Index, result.Title), locationFmt("(%s)", result.Location))

		for _, category := range Categories {
			check, ok := result.Checks[category]
			if !ok || check.Passed || check.Skipped {
				continue
			}

			fmt.Fprintf(w, "  %s: %s\n", category.Label(), check.Reason)

			if check.Want != "" {
				fmt.Fprintf(w, "    %s %s\n", wantFmt("want:"), check.Want)
			}

			if check.Got != "" {
				fmt.Fprintf(w, "    %s %s\n", gotFmt("got: "), check.Got)
			}

			if check.Diff != "" {
				for _, line := range strings.Split(strings.TrimRight(check.Diff, "\n"), "\n") {
					fmt.Fprintf(w, "    %s\n", line)
				}
			}
		}
	}
}
