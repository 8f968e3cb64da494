package core

import "fmt"

// FailureKind buckets rejected intents by cause.
type FailureKind int

const (
	// FailValidation is a request that was never valid (bad target, not owner).
	FailValidation FailureKind = iota
	// FailConflict is a request whose preconditions changed between queue and dispatch.
	FailConflict
	// FailPersistence is a store error surfaced to the requester.
	FailPersistence
	// FailInternal is an invariant violation detected during handling.
	FailInternal
)

func (k FailureKind) String() string {
	switch k {
	case FailValidation:
		return "validation"
	case FailConflict:
		return "conflict"
	case FailPersistence:
		return "persistence"
	default:
		return "internal"
	}
}

// Failure is a typed rejection of a client intent. It never carries
// state: handling a Failure must not mutate the world.
type Failure struct {
	Action string
	Kind   FailureKind
	Reason string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed (%s): %s", f.Action, f.Kind, f.Reason)
}

// Failf builds a Failure for the given action.
func Failf(action string, kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Action: action, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
