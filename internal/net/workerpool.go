package net

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunc is the unit of work every pooled goroutine runs per task.
type WorkerFunc func(t *tomb.Tomb, task any) error

// WorkerPool is a fixed-size pool of goroutines draining a shared task
// queue, each running the same WorkerFunc until the owning tomb dies.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool returns a pool sized for n concurrent workers.
func NewWorkerPool(n int) WorkerPool {
	return WorkerPool{n: n, tasks: make(chan any, taskChanSize)}
}

// AddTask enqueues one unit of work for the pool's workers to pick up.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup spawns and maintains a full complement of workers under t, each
// running work. It blocks until t starts dying.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunc) {
	log.Info().Int("workers", pool.n).Msg("starting worker pool")
	active := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if active < pool.n {
				t.Go(func() error {
					err := pool.worker(t, work)
					active--
					return err
				})
				active++
			}
		}
	}
}

// worker waits for a single task and runs it, or exits once t is dying.
func (pool *WorkerPool) worker(t *tomb.Tomb, work WorkerFunc) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-pool.tasks:
		if err := work(t, task); err != nil {
			log.Error().Err(err).Msg("worker exiting on error")
			return err
		}
	}
	return nil
}
