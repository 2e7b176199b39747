package conversation

import (
	"errors"
	"testing"
	"time"

	agerrors "github.com/coverbridge/salesagent/errors"
	"github.com/coverbridge/salesagent/session"
)

func TestTransition(t *testing.T) {
	m := NewMachine(DefaultLimits())

	tests := []struct {
		name  string
		setup func(rec *session.Record)
		sig   Signal
		want  session.Stage
	}{
		{
			name:  "greeting without profile moves to qualification",
			setup: func(rec *session.Record) { rec.Stage = session.StageGreeting },
			sig:   Signal{Intent: Intent{Kind: IntentGreeting}},
			want:  session.StageQualification,
		},
		{
			name: "greeting with sufficient profile skips qualification",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageGreeting
				rec.Profile.Age = 35
				rec.Profile.Dependents = "two kids"
			},
			sig:  Signal{Intent: Intent{Kind: IntentAmbiguous}},
			want: session.StageInformation,
		},
		{
			name:  "greeting with direct question skips qualification",
			setup: func(rec *session.Record) { rec.Stage = session.StageGreeting },
			sig:   Signal{Intent: Intent{Kind: IntentQuestion}},
			want:  session.StageInformation,
		},
		{
			name: "qualification completes with age and purpose",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageQualification
				rec.Profile.Age = 35
				rec.Profile.Purpose = "family protection"
			},
			sig:  Signal{Intent: Intent{Kind: IntentAmbiguous}},
			want: session.StageInformation,
		},
		{
			name: "qualification holds with age only",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageQualification
				rec.Profile.Age = 35
			},
			sig:  Signal{Intent: Intent{Kind: IntentAmbiguous}},
			want: session.StageQualification,
		},
		{
			name: "repeated evasion moves on with partial profile",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageQualification
				rec.EvasionCounts["qualification"] = 2
			},
			sig:  Signal{Intent: Intent{Kind: IntentAmbiguous}},
			want: session.StageInformation,
		},
		{
			name:  "objection during information",
			setup: func(rec *session.Record) { rec.Stage = session.StageInformation },
			sig:   Signal{Intent: Intent{Kind: IntentObjection, ObjectionTag: ObjectionCost}},
			want:  session.StageObjectionHandling,
		},
		{
			name:  "interest confirmation starts collection",
			setup: func(rec *session.Record) { rec.Stage = session.StageInformation },
			sig:   Signal{Intent: Intent{Kind: IntentInterest}, Interest: session.InterestHigh},
			want:  session.StageInformationCollection,
		},
		{
			name:  "interest intent without enough score holds",
			setup: func(rec *session.Record) { rec.Stage = session.StageInformation },
			sig:   Signal{Intent: Intent{Kind: IntentInterest}, Interest: session.InterestLow},
			want:  session.StageInformation,
		},
		{
			name:  "medium interest without confirmation holds",
			setup: func(rec *session.Record) { rec.Stage = session.StageInformation },
			sig:   Signal{Intent: Intent{Kind: IntentQuestion}, Interest: session.InterestMedium},
			want:  session.StageInformation,
		},
		{
			name: "objection addressed returns to information",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageObjectionHandling
				rec.Objections[ObjectionCost] = 1
			},
			sig:  Signal{Intent: Intent{Kind: IntentQuestion}},
			want: session.StageInformation,
		},
		{
			name: "first repeat of an objection stays in handling",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageObjectionHandling
				rec.Objections[ObjectionCost] = 1
			},
			sig:  Signal{Intent: Intent{Kind: IntentObjection, ObjectionTag: ObjectionCost}},
			want: session.StageObjectionHandling,
		},
		{
			name: "persistent unresolved objection steers to closing",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageObjectionHandling
				rec.Objections[ObjectionCost] = 2
			},
			sig:  Signal{Intent: Intent{Kind: IntentObjection, ObjectionTag: ObjectionCost}},
			want: session.StageClosing,
		},
		{
			name: "resolved objection does not force closing",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageObjectionHandling
				rec.Objections[ObjectionCost] = 2
				rec.ResolvedObjections[ObjectionCost] = true
			},
			sig:  Signal{Intent: Intent{Kind: IntentObjection, ObjectionTag: ObjectionCost}},
			want: session.StageObjectionHandling,
		},
		{
			name: "complete collection moves to closing",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageInformationCollection
				rec.Collected.FullName = "Jane Doe"
				rec.Collected.PhoneNumber = "+15551234567"
				rec.Collected.NationalID = "123456789"
				rec.Collected.Address = "12 Main Street, Springfield"
				rec.Collected.PolicyOfInterest = "Term Life 20-Year"
			},
			sig:  Signal{Intent: Intent{Kind: IntentAmbiguous}},
			want: session.StageClosing,
		},
		{
			name: "incomplete collection holds",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageInformationCollection
				rec.Collected.FullName = "Jane Doe"
			},
			sig:  Signal{Intent: Intent{Kind: IntentAmbiguous}},
			want: session.StageInformationCollection,
		},
		{
			name:  "closing ends on lead persisted",
			setup: func(rec *session.Record) { rec.Stage = session.StageClosing },
			sig:   Signal{Intent: Intent{Kind: IntentQuestion}, LeadPersisted: true},
			want:  session.StageEnded,
		},
		{
			name:  "closing ends on non-question",
			setup: func(rec *session.Record) { rec.Stage = session.StageClosing },
			sig:   Signal{Intent: Intent{Kind: IntentAmbiguous}},
			want:  session.StageEnded,
		},
		{
			name:  "last question keeps closing open",
			setup: func(rec *session.Record) { rec.Stage = session.StageClosing },
			sig:   Signal{Intent: Intent{Kind: IntentQuestion}},
			want:  session.StageClosing,
		},
		{
			name:  "exit overrides from greeting",
			setup: func(rec *session.Record) { rec.Stage = session.StageGreeting },
			sig:   Signal{Intent: Intent{Kind: IntentExit}, Exit: true},
			want:  session.StageEnded,
		},
		{
			name: "exit overrides mid-collection",
			setup: func(rec *session.Record) {
				rec.Stage = session.StageInformationCollection
				rec.Collected.FullName = "Jane Doe"
			},
			sig:  Signal{Intent: Intent{Kind: IntentExit}, Exit: true},
			want: session.StageEnded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := session.NewRecord(time.Hour)
			tt.setup(rec)
			before := rec.Stage
			got, err := m.Transition(rec, tt.sig)
			if err != nil {
				t.Fatalf("Transition() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Transition() = %v, want %v", got, tt.want)
			}
			if rec.Stage != before {
				t.Error("Transition() mutated the record")
			}
		})
	}
}

func TestTransitionTerminalStage(t *testing.T) {
	m := NewMachine(DefaultLimits())
	rec := session.NewRecord(time.Hour)
	rec.Stage = session.StageEnded

	got, err := m.Transition(rec, Signal{Intent: Intent{Kind: IntentQuestion}})
	if !errors.Is(err, agerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got != session.StageEnded {
		t.Errorf("terminal stage must not change, got %v", got)
	}
}

func TestTransitionUnknownStage(t *testing.T) {
	m := NewMachine(DefaultLimits())
	rec := session.NewRecord(time.Hour)
	rec.Stage = session.Stage("LIMBO")

	if _, err := m.Transition(rec, Signal{}); !errors.Is(err, agerrors.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}
