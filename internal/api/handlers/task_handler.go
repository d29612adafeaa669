package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/kmehta/taskhub-be/internal/auth"
	"github.com/kmehta/taskhub-be/internal/services"
)

// TaskHandler handles HTTP requests for the authenticated user's tasks.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// TaskPayload defines the structure for task creation requests. Any
// client-supplied owner field is ignored; ownership always comes from the
// session.
type TaskPayload struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

var allowedTaskFields = map[string]bool{
	"description": true,
	"completed":   true,
}

// Create handles task creation for the authenticated user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())

	var payload TaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	task, err := h.service.CreateTask(me.ID, payload.Description, payload.Completed)
	if err != nil {
		log.Warn().Err(err).Str("user_id", me.ID).Msg("Failed to create task")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// List returns the authenticated user's tasks.
// Filtering   -- /tasks?completed=true&search=groceries
// Pagination  -- /tasks?limit=2&skip=4
// Sorting     -- /tasks?sortBy=createdAt:desc
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())

	q := r.URL.Query()
	filter := services.TaskFilter{
		Search: q.Get("search"),
		SortBy: q.Get("sortBy"),
	}
	if v := q.Get("completed"); v != "" {
		completed := v == "true"
		filter.Completed = &completed
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Skip = n
		}
	}

	tasks, err := h.service.ListTasks(me.ID, filter)
	if err != nil {
		log.Error().Err(err).Str("user_id", me.ID).Msg("Failed to list tasks")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get returns one of the authenticated user's tasks by id.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	task, err := h.service.GetTask(me.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update mutates the allow-listed task fields.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var update services.TaskUpdate
	if err := decodeAllowList(body, &update, allowedTaskFields); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.service.UpdateTask(me.ID, id, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete removes a task and returns its prior state.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	task, err := h.service.DeleteTask(me.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
