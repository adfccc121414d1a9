package pool

import (
	"fmt"
	"log/slog"
	"time"

	"jobpool/internal/joblog"
)

// runWorker executes one checked-out job and reports its slot index on the
// completion channel exactly once, success or failure, so the slot is always
// reclaimable. Runs on its own goroutine; payload work happens outside any
// lock so a long sleep never stalls queries or the coordinator.
func (p *Pool) runWorker(job *Job, index int) {
	job.mu.Lock()
	if err := job.transitionLocked(StateRunning); err != nil {
		// Invariant violation: report it, fail the job, still release the slot.
		slog.Error("Illegal job transition", "jobId", job.id, "error", err)
		job.state = StateFailed
		job.result = err.Error()
		job.finishedAt = time.Now().UTC()
		job.mu.Unlock()
		p.signalCompletion(index)
		return
	}
	job.startedAt = time.Now().UTC()
	job.log.Append(joblog.LevelInfo, "job started")
	sub := job.submission
	job.mu.Unlock()

	result, execErr := executeSubmission(sub)

	terminal := StateSucceeded
	if execErr != nil {
		terminal = StateFailed
	}

	job.mu.Lock()
	if err := job.transitionLocked(terminal); err != nil {
		slog.Error("Illegal job transition", "jobId", job.id, "error", err)
	} else if execErr != nil {
		job.result = execErr.Error()
		job.log.Appendf(joblog.LevelError, "payload failed: %v", execErr)
	} else {
		job.result = result
	}
	job.finishedAt = time.Now().UTC()
	job.log.Append(joblog.LevelInfo, "job finished")
	job.mu.Unlock()

	p.signalCompletion(index)
}

// signalCompletion hands the slot index back to the coordinating loop.
func (p *Pool) signalCompletion(index int) {
	select {
	case p.completions <- index:
	case <-p.done:
		// Pool stopped; slot reclamation no longer matters.
	}
}

// executeSubmission performs the payload work for a submission.
func executeSubmission(sub Submission) (string, error) {
	switch sub.Kind {
	case KindEcho:
		if sub.Echo == nil {
			return "", fmt.Errorf("echo submission has no payload")
		}
		return sub.Echo.Message, nil
	case KindSleep:
		if sub.Sleep == nil {
			return "", fmt.Errorf("sleep submission has no payload")
		}
		time.Sleep(time.Duration(sub.Sleep.Milliseconds) * time.Millisecond)
		return "", nil
	default:
		return "", fmt.Errorf("unknown submission type %q", sub.Kind)
	}
}
