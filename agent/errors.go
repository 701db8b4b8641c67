package agent

// BeliefCollapseError signals that no particle survived an observation
// update. A broken belief cannot ground further planning, so this is
// fatal: it indicates a constraint-propagation bug or a corrupted
// observation history, never a condition to paper over.
type BeliefCollapseError string

func (e BeliefCollapseError) Error() string { return "belief collapse: " + string(e) }

// PlanningTimeoutError signals that the planning budget expired before
// a single simulation completed. The controller retries once with a
// relaxed budget before surfacing it.
type PlanningTimeoutError string

func (e PlanningTimeoutError) Error() string { return "planning timeout: " + string(e) }
