package smoke

import (
	"context"
	"fmt"
	"time"

	"todosmoke/internal/todo"
)

// Result represents the outcome of a step, phase or run
type Result string

const (
	// ResultPassed indicates the check or request succeeded
	ResultPassed Result = "PASSED"
	// ResultFailed indicates the service answered but not as expected
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the phase never ran
	ResultSkipped Result = "SKIPPED"
	// ResultError indicates a transport, decode or cancellation error
	ResultError Result = "ERROR"
)

// severity orders results so the worst one wins when folding.
func (r Result) severity() int {
	switch r {
	case ResultError:
		return 3
	case ResultFailed:
		return 2
	case ResultPassed:
		return 1
	default:
		return 0
	}
}

func worst(a, b Result) Result {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// Phase names of the fixed scenario, in execution order.
const (
	PhaseCreate           = "create"
	PhaseUpdate           = "update"
	PhaseVerifyMembership = "verify-membership"
	PhaseDelete           = "delete"
	PhaseVerifyRemoval    = "verify-removal"
	PhaseCleanup          = "cleanup"
)

// Console verdicts printed after each verification phase.
const (
	MessageSuccess          = "SUCCESS!"
	MessageMembershipFailed = "FAILED complete / incomplete TEST"
	MessageRemovalFailed    = "FAILED Delete TEST"
)

// MatchBy selects the key used to find items in fetched lists.
type MatchBy string

const (
	// MatchByDescription compares descriptions. Items created in the same
	// run may share a description, so a hit can be ambiguous.
	MatchByDescription MatchBy = "description"
	// MatchByID compares server-assigned ids.
	MatchByID MatchBy = "id"
)

// ParseMatchBy validates a match key. An empty name selects MatchByDescription.
func ParseMatchBy(s string) (MatchBy, error) {
	switch MatchBy(s) {
	case "", MatchByDescription:
		return MatchByDescription, nil
	case MatchByID:
		return MatchByID, nil
	default:
		return "", fmt.Errorf("invalid match key '%s', must be 'description' or 'id'", s)
	}
}

// Configuration defines a single smoke run
type Configuration struct {
	// BaseURL is the root of the todo service under test
	BaseURL string `json:"base_url"`
	// Prefix starts every generated description
	Prefix string `json:"prefix"`
	// MatchBy selects how items are found in fetched lists
	MatchBy MatchBy `json:"match_by"`
	// Encoding is the request body encoding
	Encoding todo.Encoding `json:"encoding"`
	// Cleanup deletes the item the scenario otherwise leaves behind
	Cleanup bool `json:"cleanup"`
	// Timeout bounds the whole run. Zero means none.
	Timeout time.Duration `json:"timeout"`
	// RequestTimeout bounds every HTTP request. Zero means none.
	RequestTimeout time.Duration `json:"request_timeout"`
	// Verbose enables per-step output
	Verbose bool `json:"verbose"`
	// Debug enables response dumps and HTTP tracing
	Debug bool `json:"debug"`
	// ReportPath is the directory for detailed JSON reports
	ReportPath string `json:"report_path,omitempty"`
}

// StepResult is the outcome of one HTTP call made by the driver
type StepResult struct {
	// Name identifies the step, e.g. "create item1"
	Name string `json:"name"`
	// Operation is the HTTP method and path
	Operation string `json:"operation"`
	// StatusCode is the HTTP status, 0 when no response arrived
	StatusCode int           `json:"status_code,omitempty"`
	Result     Result        `json:"result"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
	// Response is the decoded body, when the step decodes one
	Response interface{} `json:"response,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Check is a single membership assertion against a fetched list
type Check struct {
	// List is the collection path checked
	List string `json:"list"`
	// Item names the scenario item, e.g. "item1"
	Item string `json:"item"`
	// Key is the description or id looked for
	Key string `json:"key"`
	// Present is the expectation: true for membership, false for removal
	Present bool `json:"present"`
	// Matches is the number of list entries carrying Key
	Matches int    `json:"matches"`
	Result  Result `json:"result"`
}

// PhaseResult is the outcome of one scenario phase
type PhaseResult struct {
	Name      string        `json:"name"`
	Result    Result        `json:"result"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Steps     []StepResult  `json:"steps,omitempty"`
	Checks    []Check       `json:"checks,omitempty"`
	// Message is the verdict line of verification phases
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SuiteResult is the outcome of a complete run
type SuiteResult struct {
	RunID     string        `json:"run_id"`
	BaseURL   string        `json:"base_url"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Result    Result        `json:"result"`
	Phases    []PhaseResult `json:"phases"`
	// Error is set when the run stopped early
	Error         string        `json:"error,omitempty"`
	Configuration Configuration `json:"configuration"`
}

// Phase returns the named phase result, if present.
func (s SuiteResult) Phase(name string) (PhaseResult, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseResult{}, false
}

// Summary is the one-line outcome of the run.
func (s SuiteResult) Summary() string {
	passed, ran := 0, 0
	for _, p := range s.Phases {
		if p.Result == ResultSkipped {
			continue
		}
		ran++
		if p.Result == ResultPassed {
			passed++
		}
	}
	return fmt.Sprintf("todosmoke %s: %d/%d phases passed against %s (run %s, %v)",
		s.Result, passed, ran, s.BaseURL, s.RunID, s.Duration.Round(time.Millisecond))
}

// TodoAPI is the driver surface of the todo service
type TodoAPI interface {
	Create(ctx context.Context, description string, completed bool) (todo.Item, error)
	Update(ctx context.Context, id int, completed bool) (bool, error)
	List(ctx context.Context, completed bool) ([]todo.Item, error)
	Delete(ctx context.Context, item todo.Item) (bool, error)
}

// Runner executes the smoke scenario
type Runner interface {
	// Run executes the scenario against the configured service
	Run(ctx context.Context, config Configuration) (*SuiteResult, error)
}

// Reporter receives progress and results of a run
type Reporter interface {
	// ReportStart is called when a run begins
	ReportStart(config Configuration)
	// ReportPhaseStart is called before a phase executes
	ReportPhaseStart(name string)
	// ReportStepResult is called when a step completes
	ReportStepResult(stepResult StepResult)
	// ReportPhaseResult is called when a phase completes or is skipped
	ReportPhaseResult(phaseResult PhaseResult)
	// ReportSuiteResult is called when the run completes
	ReportSuiteResult(suiteResult SuiteResult)
}
