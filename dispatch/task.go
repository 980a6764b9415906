package dispatch

import (
	"context"

	"github.com/aukilabs/lastiler/pointcloud"
	"github.com/aukilabs/lastiler/router"
)

type TaskKind int

const (
	// Route the task file into the tiles.
	TaskRouteFile TaskKind = iota

	// Stop the worker that receives the task.
	TaskTerminate
)

// Task is a unit of work consumed by exactly one worker.
type Task struct {
	Kind TaskKind
	File pointcloud.FileInfo
}

// Result acknowledges the completion of a TaskRouteFile task. Workers emit
// exactly one result per routed file, including when routing failed.
type Result struct {
	WorkerID int
	FilePath string
	Outcome  router.Outcome

	// The number of files added to the output tiles.
	Added int

	// The task-local error. It never stops the run.
	Err error
}

// Handler routes a single file. It is called concurrently by all the workers.
type Handler interface {
	Handle(ctx context.Context, workerID int, file pointcloud.FileInfo) (router.Outcome, int, error)
}

// WorkerState is the state of a worker.
//
//	Idle -> Fetching -> Processing -> Idle
//	             \-> Terminated
type WorkerState int

const (
	Idle WorkerState = iota
	Fetching
	Processing
	Terminated
)

func (s WorkerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Processing:
		return "processing"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Stats summarizes the results of a run.
type Stats struct {
	DirectCopies int `json:"direct_copies"`
	Splits       int `json:"splits"`
	Unassigned   int `json:"unassigned"`
	Failed       int `json:"failed"`
	Added        int `json:"added_files"`
}

// Tally counts the results by outcome.
func Tally(results []Result) Stats {
	var s Stats
	for _, r := range results {
		s.Added += r.Added

		if r.Err != nil {
			s.Failed++
			continue
		}

		switch r.Outcome.Kind {
		case router.DirectCopy:
			s.DirectCopies++
		case router.NeedsSplit:
			s.Splits++
		case router.Unassigned:
			s.Unassigned++
		}
	}
	return s
}
