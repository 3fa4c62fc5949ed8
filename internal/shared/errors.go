package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig   = fmt.Errorf("configuration not found")
	ErrInvalidConfig   = fmt.Errorf("invalid configuration")
	ErrInvalidSchedule = fmt.Errorf("invalid schedule expression")

	// Provider and fetch errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrUnknownProvider    = fmt.Errorf("unknown provider")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Reconciliation errors
	ErrNoCandidates       = fmt.Errorf("no candidates available")
	ErrAllProvidersFailed = fmt.Errorf("all providers failed")
	ErrComputation        = fmt.Errorf("internal computation error")

	// Scheduling errors
	ErrUnknownTaskKind  = fmt.Errorf("unknown task kind")
	ErrCyclicDependency = fmt.Errorf("task dependency would create a cycle")
	ErrTaskNotFound     = fmt.Errorf("task not found")
	ErrJobNotFound      = fmt.Errorf("job not found")
	ErrSchedulerStopped = fmt.Errorf("scheduler stopped")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
