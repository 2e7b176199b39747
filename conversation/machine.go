package conversation

import (
	"fmt"

	agerrors "github.com/coverbridge/salesagent/errors"
	"github.com/coverbridge/salesagent/session"
)

// Signal is the classified event a turn delivers to the state machine.
type Signal struct {
	Intent   Intent
	Interest session.InterestLevel
	// Exit is the exit-signal boolean, computed independently of intent.
	Exit bool
	// LeadPersisted marks that collected data was handed off this turn.
	LeadPersisted bool
}

// Limits are the product-tuning knobs of the state machine.
type Limits struct {
	// EvasionLimit is how many consecutive non-answers on the same
	// qualification field we accept before moving on with a partial
	// profile.
	EvasionLimit int
	// ObjectionPersistence is how many times the same unresolved
	// objection may recur before steering to a graceful close.
	ObjectionPersistence int
}

// DefaultLimits returns the stock tuning.
func DefaultLimits() Limits {
	return Limits{
		EvasionLimit:         2,
		ObjectionPersistence: 2,
	}
}

// Machine computes stage transitions. It holds only tuning parameters,
// no session state.
type Machine struct {
	limits Limits
}

// NewMachine creates a state machine with the given limits.
func NewMachine(limits Limits) *Machine {
	if limits.EvasionLimit <= 0 {
		limits.EvasionLimit = 2
	}
	if limits.ObjectionPersistence <= 0 {
		limits.ObjectionPersistence = 2
	}
	return &Machine{limits: limits}
}

// Transition computes the next stage for a session given a classified
// signal. It is a pure function of the record's stage, profile and
// collected-data completeness, and the signal; it mutates nothing.
// At most one stage change happens per call.
//
// A signal that makes no sense for the current stage returns the current
// stage and an error wrapping ErrInvalidTransition; callers log and
// ignore it rather than corrupting the stage.
func (m *Machine) Transition(rec *session.Record, sig Signal) (session.Stage, error) {
	stage := rec.Stage

	if stage.Terminal() {
		return stage, fmt.Errorf("event in terminal stage: %w", agerrors.ErrInvalidTransition)
	}
	if !stage.Valid() {
		return stage, fmt.Errorf("unknown stage %q: %w", stage, agerrors.ErrInvalidTransition)
	}

	// Explicit exit overrides everything, from any stage. An exit during
	// collection discards the partial data, which the engine enforces.
	if sig.Exit {
		return session.StageEnded, nil
	}

	switch stage {
	case session.StageGreeting:
		if profileSufficient(rec) || sig.Intent.Kind == IntentQuestion {
			return session.StageInformation, nil
		}
		return session.StageQualification, nil

	case session.StageQualification:
		if profileSufficient(rec) {
			return session.StageInformation, nil
		}
		if m.evaded(rec) {
			// Customer dodged the same question twice; proceed with what
			// we have rather than interrogating.
			return session.StageInformation, nil
		}
		return session.StageQualification, nil

	case session.StageInformation:
		if sig.Intent.Kind == IntentObjection {
			return session.StageObjectionHandling, nil
		}
		if readyToCollect(sig) {
			return session.StageInformationCollection, nil
		}
		return session.StageInformation, nil

	case session.StageObjectionHandling:
		if sig.Intent.Kind == IntentObjection {
			if m.objectionPersisted(rec, sig.Intent.ObjectionTag) {
				return session.StageClosing, nil
			}
			return session.StageObjectionHandling, nil
		}
		if readyToCollect(sig) {
			return session.StageInformationCollection, nil
		}
		// Objection addressed, conversation continues.
		return session.StageInformation, nil

	case session.StageInformationCollection:
		if rec.Collected.IsComplete() {
			return session.StageClosing, nil
		}
		return session.StageInformationCollection, nil

	case session.StageClosing:
		if sig.LeadPersisted || sig.Intent.Kind != IntentQuestion {
			return session.StageEnded, nil
		}
		// A last question keeps the door open one more turn.
		return session.StageClosing, nil
	}

	return stage, fmt.Errorf("unhandled stage %q: %w", stage, agerrors.ErrInvalidTransition)
}

// profileSufficient reports whether qualification gathered enough:
// age plus at least one of purpose or dependents.
func profileSufficient(rec *session.Record) bool {
	return rec.Profile.Age > 0 && (rec.Profile.Purpose != "" || rec.Profile.Dependents != "")
}

// readyToCollect gates entry into information collection: sustained
// interest plus an explicit confirmation (interest intent) this turn.
func readyToCollect(sig Signal) bool {
	if sig.Interest != session.InterestMedium && sig.Interest != session.InterestHigh {
		return false
	}
	return sig.Intent.Kind == IntentInterest
}

// evaded reports whether any qualification field was dodged too often.
func (m *Machine) evaded(rec *session.Record) bool {
	for _, count := range rec.EvasionCounts {
		if count >= m.limits.EvasionLimit {
			return true
		}
	}
	return false
}

// objectionPersisted reports whether a tag keeps coming back unresolved.
func (m *Machine) objectionPersisted(rec *session.Record, tag string) bool {
	if tag == "" {
		return false
	}
	return rec.Objections[tag] >= m.limits.ObjectionPersistence && !rec.ResolvedObjections[tag]
}
