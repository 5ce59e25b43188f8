package services

import (
	"log"
	"sync"
	"time"
)

// JobRunner is the deferred-execution backend: it fires registered
// functions at their target time on its own goroutines. It knows nothing
// about sessions or cache sync; that wiring lives in SessionJobScheduler.
type JobRunner struct {
	mu   sync.Mutex
	jobs map[string]*runnerEntry
}

type runnerEntry struct {
	timer  *time.Timer
	status string
}

// Runner job states, exposed through Status. Finished jobs are dropped from
// the runner; their terminal state lives in the durable job row.
const (
	RunnerScheduled = "scheduled"
	RunnerRunning   = "running"
)

func NewJobRunner() *JobRunner {
	return &JobRunner{jobs: make(map[string]*runnerEntry)}
}

// Schedule registers fn to run at runAt. The call returns immediately; fn
// runs on a timer goroutine. The runner never retries fn (the target
// operations carry their own retry policy); once fn returns, the entry is
// dropped so the map does not grow for the process lifetime.
func (r *JobRunner) Schedule(jobID string, runAt time.Time, fn func() error) {
	delay := time.Until(runAt)
	if delay < 0 {
		delay = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &runnerEntry{status: RunnerScheduled}
	entry.timer = time.AfterFunc(delay, func() {
		r.setStatus(jobID, RunnerRunning)
		if err := fn(); err != nil {
			log.Printf("Job %s failed: %v", jobID, err)
		}
		r.remove(jobID)
	})
	r.jobs[jobID] = entry
}

// Delete cancels the job if it has not fired yet. Returns false when the
// job is unknown or already running.
func (r *JobRunner) Delete(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.jobs[jobID]
	if !ok {
		return false
	}
	if entry.status != RunnerScheduled {
		return false
	}
	stopped := entry.timer.Stop()
	delete(r.jobs, jobID)
	return stopped
}

// Status returns the job's current state, or nil for a job the runner no
// longer holds (never scheduled, cancelled, or finished).
func (r *JobRunner) Status(jobID string) *string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.jobs[jobID]
	if !ok {
		return nil
	}
	status := entry.status
	return &status
}

func (r *JobRunner) setStatus(jobID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.jobs[jobID]; ok {
		entry.status = status
	}
}

func (r *JobRunner) remove(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, jobID)
}
