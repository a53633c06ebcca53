package smoke

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"todosmoke/internal/todo"
	"todosmoke/pkg/logging"
)

const subsystem = "smoke"

// descriptionDateLayout renders the run start into item descriptions.
const descriptionDateLayout = "2006-01-02-15:04:05"

// APIFactory builds the driver used for one run.
type APIFactory func(config Configuration) (TodoAPI, error)

// NewTodoAPI builds the resty-backed todo client for config.
func NewTodoAPI(config Configuration) (TodoAPI, error) {
	client, err := todo.NewClient(todo.Options{
		BaseURL:  config.BaseURL,
		Encoding: config.Encoding,
		Timeout:  config.RequestTimeout,
		Debug:    config.Debug,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// runner implements the Runner interface
type runner struct {
	reporter Reporter
	newAPI   APIFactory
	now      func() time.Time
	newRunID func() string
}

// NewRunner creates a new smoke runner. A nil factory selects NewTodoAPI.
func NewRunner(reporter Reporter, newAPI APIFactory) Runner {
	if newAPI == nil {
		newAPI = NewTodoAPI
	}
	return &runner{
		reporter: reporter,
		newAPI:   newAPI,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

type phase struct {
	name string
	// run executes the phase and reports whether the run must stop.
	run func(ctx context.Context, result *PhaseResult) bool
}

// Run executes the fixed scenario: create three items, complete two of them,
// verify list membership, delete two, verify they are gone and optionally
// delete the remaining one.
func (r *runner) Run(ctx context.Context, config Configuration) (*SuiteResult, error) {
	config = applyDefaults(config)
	if err := ValidateConfiguration(config); err != nil {
		return nil, err
	}
	config.BaseURL, _ = todo.NormalizeBaseURL(config.BaseURL)

	api, err := r.newAPI(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo client: %w", err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	result := &SuiteResult{
		RunID:         r.newRunID(),
		BaseURL:       config.BaseURL,
		StartTime:     r.now(),
		Phases:        make([]PhaseResult, 0, 6),
		Configuration: config,
	}
	logging.Info(subsystem, "Starting run %s against %s", result.RunID, config.BaseURL)
	r.reporter.ReportStart(config)

	s := newScenario(api, config, r.reporter, result.StartTime)
	phases := []phase{
		{name: PhaseCreate, run: s.create},
		{name: PhaseUpdate, run: s.update},
		{name: PhaseVerifyMembership, run: s.verifyMembership},
		{name: PhaseDelete, run: s.delete},
		{name: PhaseVerifyRemoval, run: s.verifyRemoval},
	}
	if config.Cleanup {
		phases = append(phases, phase{name: PhaseCleanup, run: s.cleanup})
	}

	for _, p := range phases {
		if result.Error == "" && ctx.Err() != nil {
			result.Error = fmt.Sprintf("run cancelled before %s: %v", p.name, ctx.Err())
			logging.Warn(subsystem, "%s", result.Error)
		}
		if result.Error != "" {
			skipped := PhaseResult{Name: p.name, Result: ResultSkipped}
			result.Phases = append(result.Phases, skipped)
			r.reporter.ReportPhaseResult(skipped)
			continue
		}

		r.reporter.ReportPhaseStart(p.name)
		phaseResult := PhaseResult{
			Name:      p.name,
			Result:    ResultPassed,
			StartTime: time.Now(),
		}
		abort := p.run(ctx, &phaseResult)
		phaseResult.EndTime = time.Now()
		phaseResult.Duration = phaseResult.EndTime.Sub(phaseResult.StartTime)

		result.Phases = append(result.Phases, phaseResult)
		r.reporter.ReportPhaseResult(phaseResult)

		if abort {
			result.Error = fmt.Sprintf("%s phase aborted the run: %s", p.name, phaseResult.Error)
			logging.Error(subsystem, nil, "%s", result.Error)
		}
	}

	result.Result = overallResult(*result)
	result.EndTime = r.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	logging.Info(subsystem, "Run %s finished: %s", result.RunID, result.Result)

	r.reporter.ReportSuiteResult(*result)
	return result, nil
}

// overallResult folds phase results into the run result. Cleanup never
// affects it, and only verification phases can turn a run FAILED.
func overallResult(result SuiteResult) Result {
	overall := ResultPassed
	if result.Error != "" {
		overall = ResultError
	}
	for _, p := range result.Phases {
		switch p.Name {
		case PhaseCleanup:
			continue
		case PhaseVerifyMembership, PhaseVerifyRemoval:
			overall = worst(overall, p.Result)
		default:
			if p.Result == ResultError {
				overall = worst(overall, ResultError)
			}
		}
	}
	return overall
}

// plannedItem is one of the items the scenario creates.
type plannedItem struct {
	name        string
	description string
}

// scenario carries the state shared by the phases of one run.
type scenario struct {
	api      TodoAPI
	config   Configuration
	reporter Reporter
	plan     []plannedItem
	items    map[string]todo.Item
}

func newScenario(api TodoAPI, config Configuration, reporter Reporter, start time.Time) *scenario {
	date := start.Format(descriptionDateLayout)
	first := fmt.Sprintf("%s-1-%s", config.Prefix, date)
	second := fmt.Sprintf("%s-2-%s", config.Prefix, date)

	return &scenario{
		api:      api,
		config:   config,
		reporter: reporter,
		// item3 deliberately repeats the description of item1.
		plan: []plannedItem{
			{name: "item1", description: first},
			{name: "item2", description: second},
			{name: "item3", description: first},
		},
		items: make(map[string]todo.Item, 3),
	}
}

// stepOutcome classifies a driver error. A non-success status whose body was
// still usable is a service failure; anything else leaves the run without data.
func stepOutcome(err error, usable bool) Result {
	if err == nil {
		return ResultPassed
	}
	if usable && todo.StatusCode(err) != 0 {
		return ResultFailed
	}
	return ResultError
}

// record finalizes a step, attaches it to the phase and reports it.
func (s *scenario) record(phase *PhaseResult, step StepResult, err error, usable bool) StepResult {
	step.EndTime = time.Now()
	step.Duration = step.EndTime.Sub(step.StartTime)
	step.Result = stepOutcome(err, usable)
	if err != nil {
		step.Error = err.Error()
		step.StatusCode = todo.StatusCode(err)
	}
	phase.Steps = append(phase.Steps, step)
	s.reporter.ReportStepResult(step)
	return step
}

func (s *scenario) create(ctx context.Context, phase *PhaseResult) bool {
	for _, planned := range s.plan {
		step := StepResult{
			Name:      "create " + planned.name,
			Operation: "POST " + todo.PathTodo,
			StartTime: time.Now(),
		}
		item, err := s.api.Create(ctx, planned.description, false)
		usable := item != (todo.Item{})
		if usable {
			step.Response = item
		}
		step = s.record(phase, step, err, usable)
		phase.Result = worst(phase.Result, step.Result)

		if step.Result == ResultError {
			phase.Error = step.Error
			return true
		}
		s.items[planned.name] = item
		logging.Debug(subsystem, "Created %s as %s", planned.name, item)
	}
	return false
}

func (s *scenario) update(ctx context.Context, phase *PhaseResult) bool {
	for _, name := range []string{"item1", "item2"} {
		item := s.items[name]
		step := StepResult{
			Name:      "update " + name,
			Operation: "POST " + todo.ItemPath(item.ID),
			StartTime: time.Now(),
		}
		_, err := s.api.Update(ctx, item.ID, true)
		step = s.record(phase, step, err, true)
		phase.Result = worst(phase.Result, step.Result)
		if step.Error != "" && phase.Error == "" {
			phase.Error = step.Error
		}
	}
	return false
}

func (s *scenario) delete(ctx context.Context, phase *PhaseResult) bool {
	s.deleteItems(ctx, phase, "item1", "item3")
	return false
}

func (s *scenario) cleanup(ctx context.Context, phase *PhaseResult) bool {
	s.deleteItems(ctx, phase, "item2")
	return false
}

func (s *scenario) deleteItems(ctx context.Context, phase *PhaseResult, names ...string) {
	for _, name := range names {
		item := s.items[name]
		step := StepResult{
			Name:      "delete " + name,
			Operation: "DELETE " + todo.ItemPath(item.ID),
			StartTime: time.Now(),
		}
		_, err := s.api.Delete(ctx, item)
		step = s.record(phase, step, err, true)
		phase.Result = worst(phase.Result, step.Result)
		if step.Error != "" && phase.Error == "" {
			phase.Error = step.Error
		}
	}
}

// listExpectation names an item looked up in one list.
type listExpectation struct {
	list string
	item string
}

func (s *scenario) verifyMembership(ctx context.Context, phase *PhaseResult) bool {
	s.verify(ctx, phase, true, MessageMembershipFailed, []listExpectation{
		{list: todo.PathTodoCompleted, item: "item1"},
		{list: todo.PathTodoIncomplete, item: "item3"},
	})
	return false
}

// verifyRemoval requires both deleted items to be gone from both lists.
func (s *scenario) verifyRemoval(ctx context.Context, phase *PhaseResult) bool {
	var expected []listExpectation
	for _, name := range []string{"item1", "item3"} {
		for _, list := range []string{todo.PathTodoCompleted, todo.PathTodoIncomplete} {
			expected = append(expected, listExpectation{list: list, item: name})
		}
	}
	s.verify(ctx, phase, false, MessageRemovalFailed, expected)
	return false
}

// verify fetches both lists and runs one check per expectation. A list that
// answered with a non-success status but a decodable body is still checked.
func (s *scenario) verify(ctx context.Context, phase *PhaseResult, present bool, failMessage string, expected []listExpectation) {
	lists := make(map[string][]todo.Item, 2)
	result := ResultPassed
	for _, completed := range []bool{true, false} {
		items, ok := s.fetch(ctx, phase, completed)
		if !ok {
			result = ResultError
			continue
		}
		lists[todo.ListPath(completed)] = items
	}

	for _, e := range expected {
		items, ok := lists[e.list]
		if !ok {
			continue
		}
		check := s.check(e.list, items, e.item, present)
		phase.Checks = append(phase.Checks, check)
		result = worst(result, check.Result)
	}

	phase.Result = result
	if result == ResultPassed {
		phase.Message = MessageSuccess
	} else {
		phase.Message = failMessage
	}
}

// fetch lists one collection and reports whether the items are usable.
func (s *scenario) fetch(ctx context.Context, phase *PhaseResult, completed bool) ([]todo.Item, bool) {
	step := StepResult{
		Name:      "list " + todo.ListPath(completed)[1:],
		Operation: "GET " + todo.ListPath(completed),
		StartTime: time.Now(),
	}
	items, err := s.api.List(ctx, completed)
	usable := items != nil
	if usable && s.config.Debug {
		step.Response = items
	}
	step = s.record(phase, step, err, usable)
	if step.Result == ResultError && phase.Error == "" {
		phase.Error = step.Error
	}
	return items, usable
}

func (s *scenario) key(item todo.Item) string {
	if s.config.MatchBy == MatchByID {
		return strconv.Itoa(item.ID)
	}
	return item.Description
}

func (s *scenario) check(list string, items []todo.Item, name string, present bool) Check {
	key := s.key(s.items[name])
	check := Check{
		List:    list,
		Item:    name,
		Key:     key,
		Present: present,
	}
	for _, it := range items {
		if s.key(it) == key {
			check.Matches++
		}
	}

	if check.Matches > 1 && s.config.MatchBy == MatchByDescription {
		logging.Warn(subsystem, "Description %q matches %d items in %s, membership of %s is ambiguous",
			key, check.Matches, list, name)
	}

	if (check.Matches > 0) == present {
		check.Result = ResultPassed
	} else {
		check.Result = ResultFailed
	}
	return check
}
