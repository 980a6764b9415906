package dispatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lastiler/pointcloud"
)

// Coordinator fans the routing of input files out to a fixed pool of
// workers.
//
// The coordinator and its workers communicate through two FIFO queues: one
// for tasks and one for results. The task queue receives one TaskRouteFile
// per input file followed by one TaskTerminate per worker, so that every worker
// stops once the files are consumed.
//
// There is no timeout: a worker that never returns from its handler blocks
// Run forever, and a panicking handler crashes the process.
type Coordinator struct {
	// The number of workers. Defaults to 1.
	Workers int

	Handler Handler

	// Called when a worker changes state. Used for tests.
	onStateChange func(workerID int, s WorkerState)
}

// Run routes the given files and returns one result per file, in completion
// order. It returns once every worker terminated.
func (c *Coordinator) Run(ctx context.Context, files []pointcloud.FileInfo) []Result {
	numWorkers := c.Workers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	tasks := make(chan Task, len(files)+numWorkers)
	results := make(chan Result, len(files))

	for _, f := range files {
		tasks <- Task{Kind: TaskRouteFile, File: f}
	}
	for i := 0; i < numWorkers; i++ {
		tasks <- Task{Kind: TaskTerminate}
	}

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func(id int) {
			defer wg.Done()
			c.work(ctx, id, tasks, results)
		}(i)
	}

	drained := make([]Result, 0, len(files))
	for i := 0; i < len(files); i++ {
		r := <-results
		drained = append(drained, r)
		logResult(r, i+1, len(files))
	}

	wg.Wait()
	return drained
}

func (c *Coordinator) work(ctx context.Context, id int, tasks <-chan Task, results chan<- Result) {
	state := Idle
	instrumentWorkerStart()
	c.notify(id, state)

	setState := func(s WorkerState) {
		instrumentWorkerState(state, s)
		state = s
		c.notify(id, s)
	}

	for {
		setState(Fetching)
		task := <-tasks

		if task.Kind == TaskTerminate {
			setState(Terminated)
			logs.WithTag("worker_id", id).Debug("worker terminated")
			return
		}

		setState(Processing)
		start := time.Now()
		outcome, added, err := c.Handler.Handle(ctx, id, task.File)

		r := Result{
			WorkerID: id,
			FilePath: task.File.Path,
			Outcome:  outcome,
			Added:    added,
			Err:      err,
		}
		instrumentResult(r, start)
		results <- r

		setState(Idle)
	}
}

func (c *Coordinator) notify(id int, s WorkerState) {
	if c.onStateChange != nil {
		c.onStateChange(id, s)
	}
}

func logResult(r Result, done, total int) {
	if r.Err != nil {
		logs.WithTag("worker_id", r.WorkerID).
			WithTag("progress", done).
			WithTag("total", total).
			WithTag("outcome", r.Outcome.Kind.String()).
			Error(errors.New("routing file failed").
				WithTag("file", r.FilePath).
				Wrap(r.Err))
		return
	}

	logs.WithTag("worker_id", r.WorkerID).
		WithTag("progress", done).
		WithTag("total", total).
		WithTag("file", filepath.Base(r.FilePath)).
		WithTag("outcome", r.Outcome.Kind.String()).
		WithTag("added_files", r.Added).
		Info("file routed")
}
