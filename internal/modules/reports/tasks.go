package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	types "github.com/yungbote/claimpacket-backend/internal/domain"
	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/platform/apierr"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

// TaskFunc performs one generation and returns the artifact it produced.
type TaskFunc func(ctx context.Context) (uuid.UUID, error)

var ErrQueueFull = apierr.New(http.StatusServiceUnavailable, "task_queue_full", errors.New("generation queue is full"))

type queuedTask struct {
	id  uuid.UUID
	run TaskFunc
}

// TaskRunner executes generation tasks on a fixed pool of goroutines. Task
// state lives in report_generation_task so any instance can answer a poll.
type TaskRunner struct {
	log     *logger.Logger
	repo    repos.GenerationTaskRepo
	workers int

	mu      sync.Mutex
	queue   chan queuedTask
	closed  bool
	started bool
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewTaskRunner(baseLog *logger.Logger, repo repos.GenerationTaskRepo, workers, queueSize int) *TaskRunner {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &TaskRunner{
		log:     baseLog.With("component", "ReportTaskRunner"),
		repo:    repo,
		workers: workers,
		queue:   make(chan queuedTask, queueSize),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start fails tasks left queued or running by a previous process and then
// starts the workers. Workers exit when ctx is done or Stop is called.
func (r *TaskRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	n, err := r.repo.FailUnfinished(dbctx.Background(ctx), "interrupted", "task was interrupted by a restart")
	if err != nil {
		return fmt.Errorf("fail unfinished tasks: %w", err)
	}
	if n > 0 {
		r.log.Warn("Marked interrupted generation tasks failed", "count", n)
	}
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.loop(ctx)
	}
	r.started = true
	return nil
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (r *TaskRunner) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Submit enqueues fn for the already-created task row. It never blocks.
func (r *TaskRunner) Submit(task *types.GenerationTask, fn TaskFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return apierr.New(http.StatusServiceUnavailable, "tasks_unavailable", errors.New("task runner stopped"))
	}
	select {
	case r.queue <- queuedTask{id: task.ID, run: fn}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *TaskRunner) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-r.queue:
			if !ok {
				return
			}
			r.run(ctx, t)
		}
	}
}

func (r *TaskRunner) run(ctx context.Context, t queuedTask) {
	started := r.now()
	if err := r.repo.UpdateFields(dbctx.Background(ctx), t.id, map[string]interface{}{
		"status":     domreports.TaskStatusRunning,
		"started_at": started,
	}); err != nil {
		r.log.Warn("Failed to mark task running", "task_id", t.id, "error", err)
	}

	artifactID, err := r.call(ctx, t)
	if err != nil {
		r.log.Warn("Generation task failed", "task_id", t.id, "error", err)
		r.fail(ctx, t.id, err)
		return
	}
	if uerr := r.repo.UpdateFields(dbctx.Background(ctx), t.id, map[string]interface{}{
		"status":      domreports.TaskStatusSucceeded,
		"artifact_id": artifactID,
		"finished_at": r.now(),
	}); uerr != nil {
		r.log.Error("Failed to mark task succeeded", "task_id", t.id, "artifact_id", artifactID, "error", uerr)
		return
	}
	r.log.Info("Generation task succeeded", "task_id", t.id, "artifact_id", artifactID, "duration", r.now().Sub(started).String())
}

// call runs the task, converting a panic into a failure.
func (r *TaskRunner) call(ctx context.Context, t queuedTask) (id uuid.UUID, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Generation task panic", "task_id", t.id, "panic", rec)
			err = &panicError{Val: rec}
		}
	}()
	return t.run(ctx)
}

func (r *TaskRunner) fail(ctx context.Context, id uuid.UUID, err error) {
	code := reporterr.Code(err)
	var pe *panicError
	if errors.As(err, &pe) {
		code = "panic"
	}
	if uerr := r.repo.UpdateFields(dbctx.Background(ctx), id, map[string]interface{}{
		"status":        domreports.TaskStatusFailed,
		"error_code":    code,
		"error_message": err.Error(),
		"finished_at":   r.now(),
	}); uerr != nil {
		r.log.Error("Failed to mark task failed", "task_id", id, "error", uerr)
	}
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return "panic: unexpected error" }
