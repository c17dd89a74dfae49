package planner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestTaskResult(t *testing.T) {
	task := newTask()
	select {
	case <-task.Done():
		t.Fatal("task done before running")
	default:
	}

	want := &PlanResponse{ID: uuid.New()}
	task.run(func() (*PlanResponse, error) { return want, nil })
	<-task.Done()
	resp, err := task.Result()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp, test.ShouldEqual, want)

	task = newTask()
	task.run(func() (*PlanResponse, error) { return nil, errors.New("no route") })
	_, err = task.Result()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldEqual, "no route")
}

func TestTaskPanic(t *testing.T) {
	task := newTask()
	task.run(func() (*PlanResponse, error) { panic("boom") })
	resp, err := task.Result()
	test.That(t, resp, test.ShouldBeNil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "boom")
}
