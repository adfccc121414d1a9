package pool

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates submission payloads.
type Kind string

const (
	KindEcho  Kind = "echo"
	KindSleep Kind = "sleep"
)

// EchoPayload asks for its message to be recorded as the job result.
type EchoPayload struct {
	Message string `json:"message"`
}

// SleepPayload asks the worker to block for a duration.
type SleepPayload struct {
	Milliseconds uint32 `json:"milliseconds"`
}

// Submission is a tagged request for work. Exactly one payload matching Kind
// is set. Immutable once constructed.
type Submission struct {
	Kind  Kind
	Echo  *EchoPayload
	Sleep *SleepPayload
}

// submissionJSON mirrors the wire form {"type": "...", "payload": {...}}.
type submissionJSON struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// UnmarshalJSON implements custom unmarshaling for Submission.
func (s *Submission) UnmarshalJSON(data []byte) error {
	var raw submissionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case KindEcho:
		var p EchoPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("failed to unmarshal echo payload: %w", err)
		}
		*s = Submission{Kind: KindEcho, Echo: &p}
	case KindSleep:
		var p SleepPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("failed to unmarshal sleep payload: %w", err)
		}
		*s = Submission{Kind: KindSleep, Sleep: &p}
	default:
		return fmt.Errorf("unknown submission type %q", raw.Type)
	}
	return nil
}

// MarshalJSON implements custom marshaling for Submission.
func (s Submission) MarshalJSON() ([]byte, error) {
	var payload any
	switch s.Kind {
	case KindEcho:
		payload = s.Echo
	case KindSleep:
		payload = s.Sleep
	default:
		return nil, fmt.Errorf("unknown submission type %q", s.Kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(submissionJSON{Type: s.Kind, Payload: raw})
}

// State is a job lifecycle state.
type State string

const (
	StateInit      State = "init"
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transition may leave this state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// legalTransitions is the complete lifecycle state machine. No state is
// skipped and nothing leaves a terminal state.
var legalTransitions = map[State][]State{
	StateInit:    {StateQueued, StateFailed},
	StateQueued:  {StateRunning},
	StateRunning: {StateSucceeded, StateFailed},
}

// canTransition reports whether from -> to is a legal lifecycle transition.
func canTransition(from, to State) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidStateError is returned when an illegal state transition is attempted.
type InvalidStateError struct {
	From State
	To   State
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot go from %s to %s", e.From, e.To)
}
