package worker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed set of workers. The trip service
// runs it with a single worker so fanout publishes keep commit order.
type Pool struct {
	taskQueue chan Task
	wg        sync.WaitGroup
	isClosing atomic.Bool
}

func NewPool(size int) *Pool {
	wp := &Pool{
		taskQueue: make(chan Task, 256),
	}

	for i := 0; i < size; i++ {
		wp.wg.Add(1)
		go wp.startWorker()
	}

	return wp
}

func (wp *Pool) startWorker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		if err := task(context.Background()); err != nil {
			log.Printf("Worker task failed: %v", err)
		}
	}
}

func (wp *Pool) Submit(t Task) {
	if wp.isClosing.Load() {
		log.Println("Warning: task submitted during shutdown, dropping.")
		return
	}
	select {
	case wp.taskQueue <- t:
	default:
		log.Println("Task queue full, dropping task!")
	}
}

// Shutdown closes the queue and waits for workers to finish
func (wp *Pool) Shutdown() {
	wp.isClosing.Store(true)
	close(wp.taskQueue)
	wp.wg.Wait()
}
