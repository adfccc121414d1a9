package pool

import (
	"fmt"
	"time"

	"jobpool/internal/joblog"
)

// poolFullResult is recorded on jobs rejected because no slot was free.
const poolFullResult = "pool full: job never queued"

// slotState distinguishes "never allocated or reclaimed" from "running in a
// worker". An in-flight slot still holds its job handle so queries can see
// the running job, but findSlot treats it as taken.
type slotState int

const (
	slotEmpty slotState = iota
	slotOccupied
	slotInFlight
)

func (s slotState) String() string {
	switch s {
	case slotEmpty:
		return "empty"
	case slotOccupied:
		return "occupied"
	case slotInFlight:
		return "in-flight"
	default:
		return "unknown"
	}
}

// slot is one position in the fixed-capacity table.
type slot struct {
	state slotState
	job   *Job // nil iff state == slotEmpty
}

// table is the fixed-capacity slot allocator plus the archive of terminal
// jobs. It is accessed only while the Pool holds its exclusive lock.
type table struct {
	slots   []slot
	maxJobs int
	archive map[string]*Job // terminal jobs, keyed by id
}

func newTable(maxJobs int) *table {
	return &table{
		maxJobs: maxJobs,
		archive: make(map[string]*Job),
	}
}

// findSlot returns the index of a free slot, growing the table lazily up to
// maxJobs. At capacity it falls back to a first-fit scan for an empty slot.
// The scan is O(maxJobs); acceptable while maxJobs stays small.
func (t *table) findSlot() (int, bool) {
	if len(t.slots) < t.maxJobs {
		t.slots = append(t.slots, slot{state: slotEmpty})
		return len(t.slots) - 1, true
	}
	for i := range t.slots {
		if t.slots[i].state == slotEmpty {
			return i, true
		}
	}
	return 0, false
}

// handleNewJob constructs a job for the submission and either queues it into
// a slot (checked out to a worker immediately) or fails it straight into the
// archive when the pool is full. Returns the job, its slot index, and whether
// it was accepted.
func (t *table) handleNewJob(sub Submission) (*Job, int, bool) {
	job := newJob(sub)

	index, ok := t.findSlot()
	if !ok {
		// Rejected jobs never pass through queued or running.
		job.mu.Lock()
		job.state = StateFailed
		job.result = poolFullResult
		job.finishedAt = time.Now().UTC()
		job.mu.Unlock()
		t.archive[job.id] = job
		return job, -1, false
	}

	job.mu.Lock()
	job.state = StateQueued
	job.log.Appendf(joblog.LevelInfo, "queued at %s", time.Now().UTC().Format(time.RFC3339Nano))
	job.mu.Unlock()

	t.slots[index] = slot{state: slotOccupied, job: job}
	// Check the job out immediately: the worker owns it from here until the
	// completion signal comes back.
	t.slots[index].state = slotInFlight

	return job, index, true
}

// finishJob reclaims the slot a worker has reported done: the slot returns to
// empty so findSlot can reuse it, and the terminal job moves to the archive.
func (t *table) finishJob(index int) (*Job, error) {
	if index < 0 || index >= len(t.slots) {
		return nil, fmt.Errorf("completion for slot %d outside table of %d", index, len(t.slots))
	}
	s := t.slots[index]
	if s.state != slotInFlight || s.job == nil {
		return nil, fmt.Errorf("completion for slot %d in state %s", index, s.state)
	}

	t.slots[index] = slot{state: slotEmpty}
	t.archive[s.job.id] = s.job
	return s.job, nil
}

// activeJobs returns the jobs currently holding a slot.
func (t *table) activeJobs() []*Job {
	jobs := make([]*Job, 0, len(t.slots))
	for _, s := range t.slots {
		if s.job != nil {
			jobs = append(jobs, s.job)
		}
	}
	return jobs
}

// lookup finds a tracked job by id, active or archived.
func (t *table) lookup(id string) (*Job, bool) {
	for _, s := range t.slots {
		if s.job != nil && s.job.id == id {
			return s.job, true
		}
	}
	job, ok := t.archive[id]
	return job, ok
}
