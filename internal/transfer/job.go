package transfer

import (
	"context"
)

// Kind indicates whether a job is an upload or a download.
type Kind string

const (
	KindUpload   Kind = "upload"
	KindDownload Kind = "download"
)

// Snapshot is a point-in-time copy of a job's progress. The worker
// publishes snapshots; the interaction loop drains the most recent one
// each tick. Zero totals mean "not yet known".
type Snapshot struct {
	Kind         Kind
	CurrentFile  string
	CurrentBytes int64
	TotalBytes   int64
	DoneFiles    int
	TotalFiles   int
}

// Job is one background transfer. Progress flows over a latest-wins
// channel instead of a shared locked record, and completion is a
// closed channel instead of a thread join: the worker never touches
// navigation state directly.
type Job struct {
	kind   Kind
	ctx    context.Context
	cancel context.CancelFunc

	// snapshots has capacity 1 and always holds the most recent
	// snapshot; publish never blocks the worker.
	snapshots chan Snapshot

	// done is closed by the worker after err is set; err is only read
	// after done is observed closed.
	done chan struct{}
	err  error
}

func newJob(kind Kind) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		kind:      kind,
		ctx:       ctx,
		cancel:    cancel,
		snapshots: make(chan Snapshot, 1),
		done:      make(chan struct{}),
	}
}

// Kind returns the job kind.
func (j *Job) Kind() Kind {
	return j.kind
}

// Cancel requests cooperative cancellation. It is monotonic: a
// cancelled job never becomes uncancelled.
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed once the job has fully finished; after that the
// worker goroutine has exited and Err is stable.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err returns the job's terminal error, nil on success. Only valid
// after Done is closed.
func (j *Job) Err() error {
	return j.err
}

// Latest drains and returns the most recent progress snapshot, if any
// arrived since the previous call.
func (j *Job) Latest() (Snapshot, bool) {
	select {
	case s := <-j.snapshots:
		return s, true
	default:
		return Snapshot{}, false
	}
}

// publish replaces whatever snapshot is pending with s.
func (j *Job) publish(s Snapshot) {
	s.Kind = j.kind
	for {
		select {
		case j.snapshots <- s:
			return
		default:
			// Channel full: evict the stale snapshot and retry.
			select {
			case <-j.snapshots:
			default:
			}
		}
	}
}

// finish records the terminal error and closes done. Called exactly
// once, by the worker, as its last act.
func (j *Job) finish(err error) {
	j.err = classify(err)
	j.cancel()
	close(j.done)
}
