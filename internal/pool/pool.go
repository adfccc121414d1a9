// Package pool implements the job orchestrator core: a fixed-capacity slot
// table, a lifecycle state machine per job, and a single coordinating loop
// that multiplexes submission intake and worker completion signals.
//
// Concurrency model: the loop is the only writer to the slot table, each job
// guards its own mutable fields with its own lock, and up to maxJobs workers
// run concurrently with no cross-job ordering guarantee. The only throttling
// mechanism is the hard slot ceiling; submissions beyond capacity are
// rejected synchronously as failed, never queued.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"jobpool/internal/apperrors"
	"jobpool/internal/config"
	"jobpool/internal/notify"
	"jobpool/internal/observability"
)

// Pool accepts typed work submissions and runs them under a fixed
// concurrency ceiling, tracking each job's lifecycle and captured output.
type Pool struct {
	mu    sync.Mutex // exclusive lock on the slot table
	table *table

	submissions chan Submission
	completions chan int
	done        chan struct{} // closed by Stop; fails further submissions
	loopDone    chan struct{} // closed when the coordinating loop exits
	stopOnce    sync.Once

	metrics     *observability.Metrics // nil disables metrics
	notifier    notify.Notifier        // nil disables callbacks
	callbackURL string
	logger      *slog.Logger
}

// Options carries optional collaborators for a Pool.
type Options struct {
	Metrics     *observability.Metrics
	Notifier    notify.Notifier
	CallbackURL string
}

// Start constructs a Pool and launches its coordinating loop.
func Start(cfg *config.PoolConfig, opts Options) *Pool {
	p := &Pool{
		table:       newTable(cfg.MaxJobs),
		submissions: make(chan Submission, cfg.SubmissionBuffer),
		completions: make(chan int, cfg.CompletionBuffer),
		done:        make(chan struct{}),
		loopDone:    make(chan struct{}),
		metrics:     opts.Metrics,
		notifier:    opts.Notifier,
		callbackURL: opts.CallbackURL,
		logger:      slog.With("component", "pool"),
	}

	go p.run()

	p.logger.Info("Pool started", "maxJobs", cfg.MaxJobs)
	return p
}

// run is the coordinating loop: a single goroutine that waits on whichever
// of intake or completion is ready first. It never blocks while holding the
// table lock; every table mutation is synchronous and bounded by maxJobs.
func (p *Pool) run() {
	defer close(p.loopDone)

	for {
		select {
		case sub := <-p.submissions:
			p.handleSubmission(sub)
		case index := <-p.completions:
			p.handleCompletion(index)
		case <-p.done:
			return
		}
	}
}

// Submit enqueues a submission for the coordinating loop. It fails with a
// queue-closed error once the pool has stopped; acceptance says nothing
// about the job's eventual outcome, which is only observable via queries.
func (p *Pool) Submit(sub Submission) error {
	select {
	case <-p.done:
		return apperrors.QueueClosed("pool.submit")
	default:
	}

	select {
	case p.submissions <- sub:
		return nil
	case <-p.done:
		return apperrors.QueueClosed("pool.submit")
	}
}

// handleSubmission allocates a slot for the submission or fails it outright.
func (p *Pool) handleSubmission(sub Submission) {
	p.mu.Lock()
	job, index, accepted := p.table.handleNewJob(sub)
	p.mu.Unlock()

	ctx := context.Background()
	if !accepted {
		p.logger.Warn("Job rejected, pool full", "jobId", job.ID(), "kind", sub.Kind)
		if p.metrics != nil {
			p.metrics.RecordJobRejected(ctx, string(sub.Kind))
		}
		p.emitEvent(notify.EventTypeRejected, job)
		return
	}

	p.logger.Info("Job queued", "jobId", job.ID(), "kind", sub.Kind, "slot", index)
	if p.metrics != nil {
		p.metrics.RecordJobAccepted(ctx, string(sub.Kind))
	}
	p.emitEvent(notify.EventTypeQueued, job)

	go p.runWorker(job, index)
}

// handleCompletion reclaims the slot a worker has finished with.
func (p *Pool) handleCompletion(index int) {
	p.mu.Lock()
	job, err := p.table.finishJob(index)
	p.mu.Unlock()

	if err != nil {
		// A completion signal that does not match a checked-out slot means
		// shared state is inconsistent; report rather than corrupt.
		p.logger.Error("Completion for unreclaimable slot", "slot", index, "error", err)
		return
	}

	view := job.View()
	p.logger.Info("Job finished", "jobId", view.ID, "state", view.State, "slot", index)

	if p.metrics != nil {
		var duration float64
		if view.StartedAt != nil && view.FinishedAt != nil {
			duration = view.FinishedAt.Sub(*view.StartedAt).Seconds()
		}
		p.metrics.RecordJobCompleted(context.Background(), string(view.Kind), view.State == StateSucceeded, duration)
	}
	p.emitEvent(notify.EventTypeFinished, job)
}

// emitEvent dispatches a lifecycle event when a notifier is configured.
// Delivery is best-effort; the query contract stays authoritative.
func (p *Pool) emitEvent(eventType string, job *Job) {
	if p.notifier == nil || p.callbackURL == "" {
		return
	}

	view := job.View()
	data := map[string]any{
		"jobId": view.ID,
		"kind":  string(view.Kind),
		"state": string(view.State),
	}
	if view.State.Terminal() {
		data["result"] = view.Result
	}

	event := &notify.Event{
		Payload:     notify.NewJobEvent(eventType, view.ID, data),
		Destination: p.callbackURL,
	}
	if err := p.notifier.Notify(event); err != nil {
		p.logger.Warn("Failed to queue lifecycle event", "jobId", view.ID, "type", eventType, "error", err)
	}
}

// Snapshot returns a consistent view of every tracked job, active and
// archived, ordered by id (time-sortable, so effectively by creation).
func (p *Pool) Snapshot() []View {
	p.mu.Lock()
	jobs := p.table.activeJobs()
	for _, job := range p.table.archive {
		jobs = append(jobs, job)
	}
	// Copy views while still holding the table lock so the snapshot is taken
	// at a single point, never mid-transition.
	views := make([]View, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, job.View())
	}
	p.mu.Unlock()
	slices.SortFunc(views, func(a, b View) int {
		return strings.Compare(a.ID, b.ID)
	})
	return views
}

// Get returns the view of a single tracked job.
func (p *Pool) Get(id string) (View, error) {
	p.mu.Lock()
	job, ok := p.table.lookup(id)
	p.mu.Unlock()

	if !ok {
		return View{}, apperrors.NotFound("job", id)
	}
	return job.View(), nil
}

// Ready reports whether the pool is accepting submissions.
// Implements the health checker's readiness interface.
func (p *Pool) Ready(ctx context.Context) error {
	select {
	case <-p.done:
		return errors.New("pool stopped")
	default:
		return nil
	}
}

// Stop shuts down intake and waits for the coordinating loop to exit.
// Workers already running finish independently; their jobs stay queryable.
func (p *Pool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.logger.Info("Pool stopping")
		close(p.done)
	})

	select {
	case <-p.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
