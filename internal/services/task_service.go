package services

import (
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kmehta/taskhub-be/internal/models"
)

// TaskFilter describes the three independent list dimensions: filtering,
// sorting and pagination. All of them apply only within the owner's task set.
type TaskFilter struct {
	Completed *bool
	Search    string
	Limit     int
	Skip      int
	SortBy    string // "field:direction", e.g. "createdAt:desc"
}

// TaskUpdate carries the allow-listed mutable task fields. A nil field was
// not present in the request.
type TaskUpdate struct {
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	CreateTask(ownerID, description string, completed bool) (models.Task, error)
	ListTasks(ownerID string, filter TaskFilter) ([]models.Task, error)
	GetTask(ownerID, id string) (models.Task, error)
	UpdateTask(ownerID, id string, update TaskUpdate) (models.Task, error)
	DeleteTask(ownerID, id string) (models.Task, error)
}

// TaskService provides owner-scoped business logic for tasks.
type TaskService struct {
	db *sqlx.DB
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sqlx.DB) *TaskService {
	return &TaskService{db: db}
}

// Sortable fields as exposed in the API, mapped to their columns. Unknown
// fields leave the order unspecified rather than reaching the query.
var sortableColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

// CreateTask creates a task owned by the given user.
func (s *TaskService) CreateTask(ownerID, description string, completed bool) (models.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return models.Task{}, newValidationError("description", "is required")
	}

	now := time.Now().UTC()
	task := models.Task{
		ID:          uuid.New().String(),
		Description: description,
		Completed:   completed,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, description, completed, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID, task.Description, task.Completed, task.OwnerID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// ListTasks returns the owner's tasks matching the filter.
func (s *TaskService) ListTasks(ownerID string, filter TaskFilter) ([]models.Task, error) {
	qb := sq.Select("id", "description", "completed", "owner_id", "created_at", "updated_at").
		From("tasks").
		Where(sq.Eq{"owner_id": ownerID})

	if filter.Completed != nil {
		qb = qb.Where(sq.Eq{"completed": *filter.Completed})
	}
	if filter.Search != "" {
		// SQLite LIKE is case-insensitive for ASCII.
		qb = qb.Where(sq.Like{"description": "%" + filter.Search + "%"})
	}
	if column, direction, ok := parseSortBy(filter.SortBy); ok {
		qb = qb.OrderBy(column + " " + direction)
	}

	limit := int64(filter.Limit)
	if filter.Skip > 0 && limit <= 0 {
		// SQLite only accepts OFFSET after a LIMIT clause.
		limit = math.MaxInt64
	}
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}
	if filter.Skip > 0 {
		qb = qb.Offset(uint64(filter.Skip))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	if err := s.db.Select(&tasks, query, args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns the task only if it is owned by the requester. A task under
// a different owner is indistinguishable from a missing one.
func (s *TaskService) GetTask(ownerID, id string) (models.Task, error) {
	var task models.Task
	err := s.db.Get(&task,
		`SELECT id, description, completed, owner_id, created_at, updated_at FROM tasks WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask applies the allow-listed task fields under the same ownership
// rule as GetTask.
func (s *TaskService) UpdateTask(ownerID, id string, update TaskUpdate) (models.Task, error) {
	task, err := s.GetTask(ownerID, id)
	if err != nil {
		return models.Task{}, err
	}

	if update.Description != nil {
		description := strings.TrimSpace(*update.Description)
		if description == "" {
			return models.Task{}, newValidationError("description", "is required")
		}
		task.Description = description
	}
	if update.Completed != nil {
		task.Completed = *update.Completed
	}

	task.UpdatedAt = time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE tasks SET description = ?, completed = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		task.Description, task.Completed, task.UpdatedAt, task.ID, ownerID,
	)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DeleteTask removes the task and returns its prior state.
func (s *TaskService) DeleteTask(ownerID, id string) (models.Task, error) {
	task, err := s.GetTask(ownerID, id)
	if err != nil {
		return models.Task{}, err
	}
	if _, err := s.db.Exec(`DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func parseSortBy(sortBy string) (column, direction string, ok bool) {
	if sortBy == "" {
		return "", "", false
	}
	field, dir, _ := strings.Cut(sortBy, ":")
	column, ok = sortableColumns[field]
	if !ok {
		return "", "", false
	}
	if dir == "desc" {
		return column, "DESC", true
	}
	return column, "ASC", true
}
