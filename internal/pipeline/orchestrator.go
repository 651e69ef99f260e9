package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/dgallion1/blockdoc/internal/config"
	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/generate"
	"github.com/dgallion1/blockdoc/internal/schema"
	"github.com/dgallion1/blockdoc/internal/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyPrompt     = errors.New("ai block has no prompt")
	ErrQueueFull       = errors.New("job queue is full")
)

// Observer is told about every job that reaches a terminal state.
type Observer func(snap JobSnapshot, elapsed time.Duration)

// Orchestrator manages the generation job queue and its workers.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	gen      generate.Generator
	sessions *session.Store
	log      *slog.Logger
	cfg      config.Config
	observe  Observer
	wait     func(attempt int) time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to run workers.
func NewOrchestrator(cfg config.Config, gen generate.Generator, sessions *session.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		gen:      gen,
		sessions: sessions,
		log:      log,
		cfg:      cfg,
		observe:  func(JobSnapshot, time.Duration) {},
		wait:     Backoff,
	}
}

// SetObserver registers fn for finished jobs. Call before Start.
func (o *Orchestrator) SetObserver(fn Observer) { o.observe = fn }

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := &Worker{gen: o.gen, sessions: o.sessions, log: o.log, cfg: o.cfg, wait: o.wait}
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
					o.observe(job.Snapshot(), time.Since(job.CreatedAt))
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues generation for the AI block blockID of a session. The prompt
// and the preceding document context are captured now; the answer is
// inserted after the block when it arrives.
func (o *Orchestrator) Submit(sessionID, blockID string) (*Job, error) {
	sess := o.sessions.Get(sessionID)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	var prompt, context string
	err := sess.Read(func(t *doctree.Tree) error {
		n, pos, ok := t.FindByID(blockID)
		if !ok || n.Kind != schema.AIBlock {
			return fmt.Errorf("%w: %q", session.ErrBlockNotFound, blockID)
		}
		prompt = strings.TrimSpace(n.Attr("prompt"))
		context = generate.Context(t, pos, o.cfg.ContextTokens)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	job := NewJob(uuid.Must(uuid.NewV4()).String(), sessionID, blockID, prompt, context)
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.log.Info("generation queued", "job_id", job.ID, "session_id", sessionID, "block_id", blockID)
		return job, nil
	default:
		job.Fail("queued", ErrQueueFull)
		return job, fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Jobs lists a session's jobs.
func (o *Orchestrator) Jobs(sessionID string) []JobSnapshot {
	return o.jobs.ForSession(sessionID)
}

// Counts returns job counts by status.
func (o *Orchestrator) Counts() map[JobStatus]int {
	return o.jobs.Counts()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
