package planner

import (
	"github.com/pkg/errors"
)

// Task is a plan computed in the background.
type Task struct {
	done chan struct{}
	resp *PlanResponse
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// run stores the result of f, turning a panic into an error, and marks the task done.
func (t *Task) run(f func() (*PlanResponse, error)) {
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			t.resp, t.err = nil, errors.Errorf("plan task panicked: %v", r)
		}
	}()
	t.resp, t.err = f()
}

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result blocks until the task is done and returns its outcome.
func (t *Task) Result() (*PlanResponse, error) {
	<-t.done
	return t.resp, t.err
}
