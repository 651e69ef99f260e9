package pipeline

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// JobStatus represents the state of a generation job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusGenerating JobStatus = "generating"
	StatusApplied    JobStatus = "applied"
	StatusFailed     JobStatus = "failed"
	StatusDiscarded  JobStatus = "discarded"
	StatusStale      JobStatus = "stale"
)

// Terminal reports whether no further transition can happen.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusApplied, StatusFailed, StatusDiscarded, StatusStale:
		return true
	}
	return false
}

// ErrJobFinished is returned when cancelling a job that is already applying
// or done.
var ErrJobFinished = errors.New("job already finished")

// Job tracks one AI block generation request.
type Job struct {
	mu sync.Mutex

	ID        string `json:"job_id"`
	SessionID string `json:"session_id"`
	BlockID   string `json:"block_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Attempts  int       `json:"attempts"`
	Inserted  int       `json:"blocks_inserted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	prompt    string
	context   string
	cancelled bool
	claimed   bool
	err       string
}

// NewJob creates a queued job for the AI block blockID in a session.
func NewJob(id, sessionID, blockID, prompt, context string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		SessionID: sessionID,
		BlockID:   blockID,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		prompt:    prompt,
		context:   context,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.Phase = phase
	j.err = err.Error()
	j.UpdatedAt = time.Now()
}

// IncrAttempts counts one call to the generator.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Attempts++
	j.UpdatedAt = time.Now()
}

// Cancel discards the job unless its result is already being applied. A
// queued job is discarded at once; a generating one when its answer arrives.
func (j *Job) Cancel() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.claimed || j.Status.Terminal() {
		return ErrJobFinished
	}
	j.cancelled = true
	if j.Status == StatusQueued {
		j.Status = StatusDiscarded
		j.Phase = "cancelled"
	}
	j.UpdatedAt = time.Now()
	return nil
}

// claim marks the job as applying. It fails if the job was cancelled, after
// which the job is discarded.
func (j *Job) claim() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancelled {
		j.Status = StatusDiscarded
		j.Phase = "cancelled"
		j.UpdatedAt = time.Now()
		return false
	}
	j.claimed = true
	j.Phase = "applying"
	j.UpdatedAt = time.Now()
	return true
}

// Cancelled reports whether Cancel was called.
func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// SetApplied records a successful insertion of n blocks.
func (j *Job) SetApplied(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusApplied
	j.Phase = "done"
	j.Inserted = n
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	SessionID string    `json:"session_id"`
	BlockID   string    `json:"block_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Attempts  int       `json:"attempts"`
	Inserted  int       `json:"blocks_inserted"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		SessionID: j.SessionID,
		BlockID:   j.BlockID,
		Status:    j.Status,
		Phase:     j.Phase,
		Attempts:  j.Attempts,
		Inserted:  j.Inserted,
		Error:     j.err,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// ForSession returns snapshots of a session's jobs, oldest first.
func (s *JobStore) ForSession(sessionID string) []JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []JobSnapshot
	for _, j := range s.jobs {
		if j.SessionID == sessionID {
			out = append(out, j.Snapshot())
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out
}

// Counts returns the number of jobs per status.
func (s *JobStore) Counts() map[JobStatus]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[JobStatus]int{}
	for _, j := range s.jobs {
		out[j.Snapshot().Status]++
	}
	return out
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
