package pool

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"jobpool/internal/joblog"
)

// Job is the lifecycle record for one submission. Its mutable fields are
// guarded by mu: the coordinator touches them briefly at insert time, then
// exactly one worker owns them until the job is terminal. Queriers only ever
// take the lock long enough to copy a view.
type Job struct {
	mu sync.Mutex

	id         string
	submission Submission
	state      State
	createdAt  time.Time
	startedAt  time.Time // zero until running
	finishedAt time.Time // zero until terminal
	result     string    // empty until terminal
	log        *joblog.Buffer
}

// newJob constructs a Job in state init with a fresh time-sortable id.
func newJob(sub Submission) *Job {
	return &Job{
		id:         uuid.Must(uuid.NewV7()).String(),
		submission: sub,
		state:      StateInit,
		createdAt:  time.Now().UTC(),
		log:        joblog.New(),
	}
}

// ID returns the job's immutable identifier.
func (j *Job) ID() string { return j.id }

// transitionLocked moves the job to a new state, rejecting anything outside
// the lifecycle state machine. Caller holds j.mu.
func (j *Job) transitionLocked(to State) error {
	if !canTransition(j.state, to) {
		return InvalidStateError{From: j.state, To: to}
	}
	j.state = to
	return nil
}

// View is an immutable copy of a job's observable state.
type View struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	State      State      `json:"state"`
	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Result     string     `json:"result"`
	LogText    string     `json:"logText"`
}

// View copies the job's observable state under its lock, so a concurrent
// worker transition is never observed torn.
func (j *Job) View() View {
	j.mu.Lock()
	defer j.mu.Unlock()

	v := View{
		ID:        j.id,
		Kind:      j.submission.Kind,
		State:     j.state,
		CreatedAt: j.createdAt,
		Result:    j.result,
		LogText:   j.log.Render(),
	}
	if !j.startedAt.IsZero() {
		t := j.startedAt
		v.StartedAt = &t
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		v.FinishedAt = &t
	}
	return v
}
