package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmehta/taskhub-be/internal/models"
)

func newTaskFixture(t *testing.T) (*TaskService, models.User, models.User) {
	t.Helper()
	users, tasks, _ := newTestServices(t)

	alice, _, err := users.Register(registerInput("alice@example.com"))
	require.NoError(t, err)
	bob, _, err := users.Register(registerInput("bob@example.com"))
	require.NoError(t, err)
	return tasks, alice, bob
}

func descriptions(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Description
	}
	return out
}

func TestCreateTaskTrimsDescription(t *testing.T) {
	tasks, alice, _ := newTaskFixture(t)

	task, err := tasks.CreateTask(alice.ID, "  walk the dog  ", false)
	require.NoError(t, err)
	assert.Equal(t, "walk the dog", task.Description)
	assert.Equal(t, alice.ID, task.OwnerID)
	assert.False(t, task.Completed)
}

func TestCreateTaskRejectsEmptyDescription(t *testing.T) {
	tasks, alice, _ := newTaskFixture(t)

	_, err := tasks.CreateTask(alice.ID, "   ", false)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "description")
}

func TestTaskOwnershipIsolation(t *testing.T) {
	tasks, alice, bob := newTaskFixture(t)

	task, err := tasks.CreateTask(alice.ID, "alice's secret", false)
	require.NoError(t, err)

	// Bob never sees Alice's task, and a foreign task is indistinguishable
	// from a missing one.
	_, err = tasks.GetTask(bob.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	completed := true
	_, err = tasks.UpdateTask(bob.ID, task.ID, TaskUpdate{Completed: &completed})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tasks.DeleteTask(bob.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := tasks.ListTasks(bob.ID, TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// The failed foreign update must not have touched the task.
	unchanged, err := tasks.GetTask(alice.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, unchanged.Completed)
}

func TestListTasksCompletedFilter(t *testing.T) {
	tasks, alice, _ := newTaskFixture(t)

	_, err := tasks.CreateTask(alice.ID, "done thing", true)
	require.NoError(t, err)
	_, err = tasks.CreateTask(alice.ID, "open thing", false)
	require.NoError(t, err)
	_, err = tasks.CreateTask(alice.ID, "another open thing", false)
	require.NoError(t, err)

	all, err := tasks.ListTasks(alice.ID, TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	done := true
	completed, err := tasks.ListTasks(alice.ID, TaskFilter{Completed: &done})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "done thing", completed[0].Description)

	open := false
	incomplete, err := tasks.ListTasks(alice.ID, TaskFilter{Completed: &open})
	require.NoError(t, err)
	assert.Len(t, incomplete, 2)
}

func TestListTasksSearchIsCaseInsensitive(t *testing.T) {
	tasks, alice, _ := newTaskFixture(t)

	for _, d := range []string{"Buy MILK", "buy bread", "call mom"} {
		_, err := tasks.CreateTask(alice.ID, d, false)
		require.NoError(t, err)
	}

	matched, err := tasks.ListTasks(alice.ID, TaskFilter{Search: "BUY"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Buy MILK", "buy bread"}, descriptions(matched))

	matched, err = tasks.ListTasks(alice.ID, TaskFilter{Search: "milk"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy MILK"}, descriptions(matched))
}

func TestListTasksPagination(t *testing.T) {
	tasks, alice, _ := newTaskFixture(t)

	for i := 1; i <= 6; i++ {
		_, err := tasks.CreateTask(alice.ID, fmt.Sprintf("task-%d", i), false)
		require.NoError(t, err)
	}
	sorted := TaskFilter{SortBy: "description:asc"}

	window := sorted
	window.Limit = 2
	window.Skip = 4
	page, err := tasks.ListTasks(alice.ID, window)
	require.NoError(t, err)
	assert.Equal(t, []string{"task-5", "task-6"}, descriptions(page))

	limited := sorted
	limited.Limit = 2
	page, err = tasks.ListTasks(alice.ID, limited)
	require.NoError(t, err)
	assert.Equal(t, []string{"task-1", "task-2"}, descriptions(page))

	skipped := sorted
	skipped.Skip = 4
	page, err = tasks.ListTasks(alice.ID, skipped)
	require.NoError(t, err)
	assert.Equal(t, []string{"task-5", "task-6"}, descriptions(page))
}

func TestListTasksSorting(t *testing.T) {
	tasks, alice, _ := newTaskFixture(t)

	for _, d := range []string{"banana", "apple", "cherry"} {
		_, err := tasks.CreateTask(alice.ID, d, false)
		require.NoError(t, err)
	}

	asc, err := tasks.ListTasks(alice.ID, TaskFilter{SortBy: "description"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "cherry"}, descriptions(asc))

	desc, err := tasks.ListTasks(alice.ID, TaskFilter{SortBy: "description:desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry", "banana", "apple"}, descriptions(desc))

	// A direction other than "desc" sorts ascending.
	other, err := tasks.ListTasks(alice.ID, TaskFilter{SortBy: "description:banana"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "cherry"}, descriptions(other))

	// An unknown field leaves the order unspecified but must not error.
	unknown, err := tasks.ListTasks(alice.ID, TaskFilter{SortBy: "priority:desc"})
	require.NoError(t, err)
	assert.Len(t, unknown, 3)
}

func TestUpdateTask(t *testing.T) {
	tasks, alice, _ := newTaskFixture(t)

	task, err := tasks.CreateTask(alice.ID, "draft report", false)
	require.NoError(t, err)

	description := "  finish report  "
	completed := true
	updated, err := tasks.UpdateTask(alice.ID, task.ID, TaskUpdate{Description: &description, Completed: &completed})
	require.NoError(t, err)
	assert.Equal(t, "finish report", updated.Description)
	assert.True(t, updated.Completed)

	empty := "   "
	_, err = tasks.UpdateTask(alice.ID, task.ID, TaskUpdate{Description: &empty})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	// The rejected update must leave the task unmodified.
	current, err := tasks.GetTask(alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "finish report", current.Description)
}

func TestDeleteTaskReturnsPriorState(t *testing.T) {
	tasks, alice, _ := newTaskFixture(t)

	task, err := tasks.CreateTask(alice.ID, "ephemeral", true)
	require.NoError(t, err)

	deleted, err := tasks.DeleteTask(alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)
	assert.Equal(t, "ephemeral", deleted.Description)
	assert.True(t, deleted.Completed)

	_, err = tasks.GetTask(alice.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
