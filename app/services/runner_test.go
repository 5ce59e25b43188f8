package services

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, runner *JobRunner, jobID, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status := runner.Status(jobID); status != nil && *status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", jobID, want)
}

func waitForRunnerGone(t *testing.T, runner *JobRunner, jobID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runner.Status(jobID) == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("runner entry for job %s was never dropped", jobID)
}

func TestJobRunnerFiresScheduledJob(t *testing.T) {
	runner := NewJobRunner()

	fired := make(chan struct{})
	runner.Schedule("j1", time.Now().Add(10*time.Millisecond), func() error {
		close(fired)
		return nil
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job never fired")
	}
	waitForRunnerGone(t, runner, "j1")
}

func TestJobRunnerReportsRunningState(t *testing.T) {
	runner := NewJobRunner()

	release := make(chan struct{})
	runner.Schedule("j1", time.Now().Add(5*time.Millisecond), func() error {
		<-release
		return nil
	})

	waitForStatus(t, runner, "j1", RunnerRunning)
	close(release)
	waitForRunnerGone(t, runner, "j1")
}

func TestJobRunnerDropsEntryAfterFailure(t *testing.T) {
	runner := NewJobRunner()

	runner.Schedule("j1", time.Now().Add(5*time.Millisecond), func() error {
		return errors.New("job body failed")
	})

	waitForRunnerGone(t, runner, "j1")
}

func TestJobRunnerDeletePreventsExecution(t *testing.T) {
	runner := NewJobRunner()

	fired := false
	runner.Schedule("j1", time.Now().Add(200*time.Millisecond), func() error {
		fired = true
		return nil
	})

	require.True(t, runner.Delete("j1"))
	assert.Nil(t, runner.Status("j1"))

	time.Sleep(300 * time.Millisecond)
	assert.False(t, fired)
}

func TestJobRunnerDeleteUnknownJob(t *testing.T) {
	runner := NewJobRunner()
	assert.False(t, runner.Delete("missing"))
	assert.Nil(t, runner.Status("missing"))
}

func TestJobRunnerPastRunAtStillAsync(t *testing.T) {
	runner := NewJobRunner()

	fired := make(chan struct{})
	runner.Schedule("j1", time.Now().Add(-time.Hour), func() error {
		close(fired)
		return nil
	})

	// Schedule must have returned before the job body runs.
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job never fired")
	}
}
