package worker

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/ppiankov/storybias/internal/model"
)

// Task is one keyed unit of batch work. Limit names the limiter bucket the
// task draws from; an empty Limit runs unthrottled.
type Task struct {
	Key   model.RecordKey
	Limit string
	Run   func(ctx context.Context) error
}

// TaskJob adapts a Task to the pool
type TaskJob struct {
	Task    Task
	Limiter *Limiter
}

// Execute waits for the task's rate limit and runs it
func (j *TaskJob) Execute(ctx context.Context) Result {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return &TaskResult{Key: j.Task.Key, Error: err}
	}
	if j.Limiter != nil && j.Task.Limit != "" {
		if err := j.Limiter.Wait(ctx, j.Task.Limit); err != nil {
			return &TaskResult{Key: j.Task.Key, Error: err, Duration: time.Since(start)}
		}
	}

	err := j.Task.Run(ctx)
	return &TaskResult{Key: j.Task.Key, Error: err, Duration: time.Since(start)}
}

// TaskResult represents the result of a task
type TaskResult struct {
	Key      model.RecordKey
	Error    error
	Duration time.Duration
}

// GetError returns the error from the task result
func (r *TaskResult) GetError() error {
	return r.Error
}

// BatchProcessor runs tasks concurrently under a shared limiter
type BatchProcessor struct {
	limiter     *Limiter
	concurrency int
}

// NewBatchProcessor creates a new batch processor. limiter may be nil.
func NewBatchProcessor(limiter *Limiter, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		limiter:     limiter,
		concurrency: concurrency,
	}
}

// Process runs every task and returns one result per task ordered by key.
// Tasks that never started because ctx was cancelled report ctx.Err().
func (b *BatchProcessor) Process(ctx context.Context, tasks []Task) []*TaskResult {
	if len(tasks) == 0 {
		return []*TaskResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for _, task := range tasks {
		pool.Submit(&TaskJob{Task: task, Limiter: b.limiter})
	}

	results := pool.Wait()

	done := make(map[model.RecordKey]*TaskResult, len(results))
	for _, result := range results {
		r := result.(*TaskResult)
		done[r.Key] = r
	}

	out := make([]*TaskResult, 0, len(tasks))
	for _, task := range tasks {
		r, ok := done[task.Key]
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			r = &TaskResult{Key: task.Key, Error: err}
		}
		out = append(out, r)
	}

	slices.SortFunc(out, func(a, b *TaskResult) int {
		return CompareKeys(a.Key, b.Key)
	})

	return out
}

// CompareKeys orders record keys by model, round, then index
func CompareKeys(a, b model.RecordKey) int {
	if c := cmp.Compare(a.Model, b.Model); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Round, b.Round); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}
