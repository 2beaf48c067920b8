package infra

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job asks for one file to be imported into a workspace.
type Job struct {
	ID     string    `json:"id"`
	Path   string    `json:"path"`
	Queued time.Time `json:"queued"`
}

// NewJob stamps a job for path.
func NewJob(path string) Job {
	return Job{ID: uuid.NewString(), Path: path, Queued: time.Now().UTC()}
}

type Queue interface {
	Push(Job)
	Pop() (Job, bool)
}

// MemQueue is a FIFO of jobs. Ready fires after a push so consumers can
// wait instead of polling.
type MemQueue struct {
	mu    sync.Mutex
	q     []Job
	ready chan struct{}
}

func NewMemQueue() *MemQueue { return &MemQueue{ready: make(chan struct{}, 1)} }

func (mq *MemQueue) Push(j Job) {
	mq.mu.Lock()
	mq.q = append(mq.q, j)
	mq.mu.Unlock()
	select {
	case mq.ready <- struct{}{}:
	default:
	}
}

func (mq *MemQueue) Pop() (Job, bool) {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if len(mq.q) == 0 {
		return Job{}, false
	}
	j := mq.q[0]
	mq.q = mq.q[1:]
	return j, true
}

func (mq *MemQueue) Len() int {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return len(mq.q)
}

func (mq *MemQueue) Ready() <-chan struct{} { return mq.ready }

// Consume pops jobs and hands them to fn until ctx is done. A failing job
// is reported through onErr and does not stop the loop.
func Consume(ctx context.Context, mq *MemQueue, fn func(context.Context, Job) error, onErr func(Job, error)) error {
	for {
		for {
			j, ok := mq.Pop()
			if !ok {
				break
			}
			if err := fn(ctx, j); err != nil && onErr != nil {
				onErr(j, err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-mq.ready:
		}
	}
}
