package flasher

import (
	"context"
	"sync"
	"time"

	"flashy/internal/state"
)

// Job tracks one flash attempt from spawn to terminal state. All fields are
// guarded by mu; the cond wakes log subscribers when lines arrive or the job
// finishes.
type Job struct {
	id        string
	serial    string
	bundleDir string
	storage   string

	mu   sync.Mutex
	cond *sync.Cond

	st              state.JobState
	exitCode        *int
	errMsg          string
	started         time.Time
	finished        time.Time
	lines           []string
	cancelRequested bool

	done chan struct{}
}

func newJob(id, serial, bundleDir, storage string) *Job {
	j := &Job{
		id:        id,
		serial:    serial,
		bundleDir: bundleDir,
		storage:   storage,
		st:        state.JobIdle,
		done:      make(chan struct{}),
	}
	j.cond = sync.NewCond(&j.mu)
	return j
}

// ID returns the job identifier.
func (j *Job) ID() string {
	return j.id
}

// Serial returns the target device serial.
func (j *Job) Serial() string {
	return j.serial
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// State returns the current lifecycle state.
func (j *Job) State() state.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.st
}

// Summary returns a copyable snapshot of the job.
func (j *Job) Summary() state.JobSummary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.summaryLocked()
}

func (j *Job) summaryLocked() state.JobSummary {
	var code *int
	if j.exitCode != nil {
		c := *j.exitCode
		code = &c
	}
	return state.JobSummary{
		ID:        j.id,
		Serial:    j.serial,
		State:     j.st,
		BundleDir: j.bundleDir,
		Storage:   j.storage,
		ExitCode:  code,
		Error:     j.errMsg,
		Started:   j.started,
		Finished:  j.finished,
		LogLines:  len(j.lines),
	}
}

func (j *Job) markRunning(at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.st = state.JobRunning
	j.started = at
}

// appendLine records one line of process output and wakes subscribers.
func (j *Job) appendLine(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lines = append(j.lines, line)
	j.cond.Broadcast()
}

// markCancelRequested flags the job so its terminal state becomes Cancelled
// regardless of how the process exits.
func (j *Job) markCancelRequested() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelRequested = true
}

func (j *Job) cancelWasRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelRequested
}

// finish moves the job to a terminal state exactly once.
func (j *Job) finish(st state.JobState, exitCode *int, errMsg string, at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.st.Terminal() {
		return
	}
	j.st = st
	j.exitCode = exitCode
	j.errMsg = errMsg
	j.finished = at
	j.cond.Broadcast()
	close(j.done)
}

// Log returns lines starting at offset, the offset of the next unread line,
// and whether the job is terminal with no further lines coming.
func (j *Job) Log(offset int) (lines []string, next int, done bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset > len(j.lines) {
		offset = len(j.lines)
	}
	lines = append(lines, j.lines[offset:]...)
	next = len(j.lines)
	return lines, next, j.st.Terminal()
}

// WaitLog behaves like Log but blocks until new lines arrive, the job ends,
// or ctx is cancelled.
func (j *Job) WaitLog(ctx context.Context, offset int) (lines []string, next int, done bool) {
	stop := context.AfterFunc(ctx, func() {
		j.mu.Lock()
		j.cond.Broadcast()
		j.mu.Unlock()
	})
	defer stop()

	j.mu.Lock()
	defer j.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	for offset >= len(j.lines) && !j.st.Terminal() && ctx.Err() == nil {
		j.cond.Wait()
	}
	if offset > len(j.lines) {
		offset = len(j.lines)
	}
	lines = append(lines, j.lines[offset:]...)
	next = len(j.lines)
	return lines, next, j.st.Terminal()
}

// Subscribe streams the full job log from the beginning. The channel delivers
// every line in order and closes once the job is terminal and fully drained,
// or when ctx is cancelled. Slow subscribers never block the producer.
func (j *Job) Subscribe(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		offset := 0
		for {
			lines, next, done := j.WaitLog(ctx, offset)
			for _, line := range lines {
				select {
				case out <- line:
				case <-ctx.Done():
					return
				}
			}
			offset = next
			if ctx.Err() != nil {
				return
			}
			// All output is appended before the job turns terminal, so an
			// empty read on a terminal job means the stream is complete.
			if done && len(lines) == 0 {
				return
			}
		}
	}()
	return out
}
