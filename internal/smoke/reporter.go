package smoke

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Faint(true)
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

// consoleReporter implements the Reporter interface for humans
type consoleReporter struct {
	w       io.Writer
	verbose bool
	debug   bool
}

// NewConsoleReporter creates a reporter printing emoji-decorated progress to w
func NewConsoleReporter(w io.Writer, verbose, debug bool) Reporter {
	return &consoleReporter{
		w:       w,
		verbose: verbose,
		debug:   debug,
	}
}

// ReportStart is called when a run begins
func (r *consoleReporter) ReportStart(config Configuration) {
	fmt.Fprintf(r.w, "%s\n", titleStyle.Render("🧪 Starting todo smoke test"))
	fmt.Fprintf(r.w, "📡 Base URL: %s\n", config.BaseURL)

	if r.verbose {
		fmt.Fprintf(r.w, "⚙️  Configuration:\n")
		fmt.Fprintf(r.w, "   • Prefix: %s\n", config.Prefix)
		fmt.Fprintf(r.w, "   • Match by: %s\n", config.MatchBy)
		fmt.Fprintf(r.w, "   • Encoding: %s\n", config.Encoding)
		fmt.Fprintf(r.w, "   • Cleanup: %t\n", config.Cleanup)
		fmt.Fprintf(r.w, "   • Timeout: %s\n", durationOrNone(config.Timeout))
		fmt.Fprintf(r.w, "   • Request timeout: %s\n", durationOrNone(config.RequestTimeout))
		if config.ReportPath != "" {
			fmt.Fprintf(r.w, "   • Report path: %s\n", config.ReportPath)
		}
	}
	fmt.Fprintf(r.w, "\n")
}

// ReportPhaseStart is called before a phase executes
func (r *consoleReporter) ReportPhaseStart(name string) {
	if r.verbose {
		fmt.Fprintf(r.w, "🎯 Phase: %s\n", name)
	} else {
		fmt.Fprintf(r.w, "🎯 %s... ", name)
	}
}

// ReportStepResult is called when a step completes
func (r *consoleReporter) ReportStepResult(stepResult StepResult) {
	if !r.verbose {
		return
	}

	fmt.Fprintf(r.w, "   %s %s: %s (%v)\n",
		resultSymbol(stepResult.Result), stepResult.Name, stepResult.Operation, stepResult.Duration.Round(time.Millisecond))
	if stepResult.Error != "" {
		fmt.Fprintf(r.w, "     ❌ Error: %s\n", stepResult.Error)
	}
	if r.debug && stepResult.Response != nil {
		fmt.Fprintf(r.w, "     📤 Response: %s\n", formatResponse(stepResult.Response))
	}
}

// ReportPhaseResult is called when a phase completes or is skipped
func (r *consoleReporter) ReportPhaseResult(phaseResult PhaseResult) {
	symbol := resultSymbol(phaseResult.Result)

	if phaseResult.Result == ResultSkipped {
		fmt.Fprintf(r.w, "%s %s %s\n", symbol, phaseResult.Name, renderResult(phaseResult.Result))
		return
	}

	if r.verbose {
		fmt.Fprintf(r.w, "%s Phase completed: %s %s (%v)\n",
			symbol, phaseResult.Name, renderResult(phaseResult.Result), phaseResult.Duration.Round(time.Millisecond))
		for _, check := range phaseResult.Checks {
			expect := "absent from"
			if check.Present {
				expect = "present in"
			}
			fmt.Fprintf(r.w, "   %s %s %q %s %s (%d matches)\n",
				resultSymbol(check.Result), check.Item, check.Key, expect, check.List, check.Matches)
		}
		if phaseResult.Error != "" {
			fmt.Fprintf(r.w, "   ❌ Error: %s\n", phaseResult.Error)
		}
	} else {
		fmt.Fprintf(r.w, "%s (%v)\n", symbol, phaseResult.Duration.Round(time.Millisecond))
	}

	if phaseResult.Message != "" {
		fmt.Fprintf(r.w, "%s\n", renderMessage(phaseResult))
	}
	if r.verbose {
		fmt.Fprintf(r.w, "\n")
	}
}

// ReportSuiteResult is called when the run completes
func (r *consoleReporter) ReportSuiteResult(suiteResult SuiteResult) {
	fmt.Fprintf(r.w, "\n🏁 Smoke Test Complete\n")
	fmt.Fprintf(r.w, "🆔 Run: %s\n", suiteResult.RunID)
	fmt.Fprintf(r.w, "⏱️  Duration: %v\n", suiteResult.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.w, "📊 Phases:\n")
	for _, p := range suiteResult.Phases {
		fmt.Fprintf(r.w, "   %s %-18s %s\n", resultSymbol(p.Result), p.Name, renderResult(p.Result))
	}

	if suiteResult.Error != "" {
		fmt.Fprintf(r.w, "\n💥 %s\n", suiteResult.Error)
	}

	switch suiteResult.Result {
	case ResultPassed:
		fmt.Fprintf(r.w, "\n🎉 %s\n", passedStyle.Render("Todo service passed the smoke test"))
	case ResultFailed:
		fmt.Fprintf(r.w, "\n💔 %s\n", failedStyle.Render("Todo service failed the smoke test"))
	default:
		fmt.Fprintf(r.w, "\n💥 %s\n", errorStyle.Render("Smoke test could not complete"))
	}
}

// NewQuietReporter creates a reporter that only outputs essential information
func NewQuietReporter(w io.Writer) Reporter {
	return &quietReporter{w: w}
}

// quietReporter implements minimal output for CI/CD integration
type quietReporter struct {
	w io.Writer
}

func (r *quietReporter) ReportStart(config Configuration) {}

func (r *quietReporter) ReportPhaseStart(name string) {}

func (r *quietReporter) ReportStepResult(stepResult StepResult) {}

func (r *quietReporter) ReportPhaseResult(phaseResult PhaseResult) {
	// Only report failures
	if phaseResult.Result == ResultFailed || phaseResult.Result == ResultError {
		detail := phaseResult.Error
		if detail == "" {
			detail = phaseResult.Message
		}
		fmt.Fprintf(r.w, "%s %s: %s\n", resultSymbol(phaseResult.Result), phaseResult.Name, detail)
	}
}

func (r *quietReporter) ReportSuiteResult(suiteResult SuiteResult) {
	fmt.Fprintf(r.w, "%s %s\n", resultSymbol(suiteResult.Result), suiteResult.Summary())
}

// NewJSONReporter creates a reporter that outputs JSON for CI/CD integration
func NewJSONReporter(w io.Writer) Reporter {
	return &jsonReporter{w: w}
}

// jsonReporter implements JSON output for machine consumption
type jsonReporter struct {
	w io.Writer
}

func (r *jsonReporter) ReportStart(config Configuration) {}

func (r *jsonReporter) ReportPhaseStart(name string) {}

func (r *jsonReporter) ReportStepResult(stepResult StepResult) {}

func (r *jsonReporter) ReportPhaseResult(phaseResult PhaseResult) {}

func (r *jsonReporter) ReportSuiteResult(suiteResult SuiteResult) {
	jsonData, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		fmt.Fprintf(r.w, `{"error": "Failed to marshal results: %v"}`+"\n", err)
		return
	}
	fmt.Fprintln(r.w, string(jsonData))
}

// SaveReport writes a detailed JSON report into dir and returns its path.
func SaveReport(dir string, suiteResult SuiteResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// Runs started within the same second are told apart by run id.
	name := "todosmoke-report-" + suiteResult.StartTime.Format("20060102-150405")
	if suiteResult.RunID != "" {
		name += "-" + suiteResult.RunID
	}
	fullPath := filepath.Join(dir, name+".json")

	jsonData, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(fullPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return fullPath, nil
}

// resultSymbol returns an appropriate symbol for the result
func resultSymbol(result Result) string {
	switch result {
	case ResultPassed:
		return "✅"
	case ResultFailed:
		return "❌"
	case ResultSkipped:
		return "⏭️"
	case ResultError:
		return "💥"
	default:
		return "❓"
	}
}

func renderResult(result Result) string {
	switch result {
	case ResultPassed:
		return passedStyle.Render(string(result))
	case ResultFailed:
		return failedStyle.Render(string(result))
	case ResultError:
		return errorStyle.Render(string(result))
	default:
		return skippedStyle.Render(string(result))
	}
}

func renderMessage(phaseResult PhaseResult) string {
	if phaseResult.Result == ResultPassed {
		return passedStyle.Render(phaseResult.Message)
	}
	return failedStyle.Render(phaseResult.Message)
}

// formatResponse renders a decoded body, truncating long output
func formatResponse(response interface{}) string {
	jsonBytes, err := json.Marshal(response)
	if err != nil {
		return fmt.Sprintf("%v", response)
	}

	const maxLength = 200
	if len(jsonBytes) > maxLength {
		return string(jsonBytes[:maxLength]) + "..."
	}
	return string(jsonBytes)
}

func durationOrNone(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}
