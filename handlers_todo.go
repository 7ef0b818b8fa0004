package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/example/todoapi/internal/auth"
	"github.com/gorilla/mux"
)

type todoData struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTodoData(t *Todo) todoData {
	return todoData{
		ID:          t.ID,
		UserID:      t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ownedTodo loads the todo named in the route and checks that the caller owns
// it. A missing todo is reported as 404 before ownership is considered, so the
// 403 answer does reveal that the id exists. verb completes "Not authorized to
// ... this todo"; failure is the message of a storage error.
func (a *App) ownedTodo(w http.ResponseWriter, r *http.Request, verb, failure string) (*Todo, bool) {
	id, _ := auth.IdentityFrom(r.Context())

	todo, err := a.DB.GetTodoByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.internalError(w, r, failure, err)
		return nil, false
	}
	if todo == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Todo not found")
		return nil, false
	}
	if auth.Authorize(todo.OwnerID, id) != auth.Allow {
		a.log.Warn("todo access denied", "todo_id", todo.ID, "user_id", id.SubjectID)
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not authorized to "+verb+" this todo")
		return nil, false
	}
	return todo, true
}

func (a *App) HandleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeValidationError(w, "Validation failed", errs)
		return
	}

	var description string
	if req.Description != nil {
		description = *req.Description
	}
	completed := req.Completed != nil && *req.Completed

	id, _ := auth.IdentityFrom(r.Context())
	todo, err := a.DB.CreateTodo(r.Context(), id.SubjectID, *req.Title, description, completed)
	if err != nil {
		a.internalError(w, r, "Failed to create todo", err)
		return
	}
	writeSuccess(w, http.StatusCreated, toTodoData(todo))
}

func (a *App) HandleListTodos(w http.ResponseWriter, r *http.Request) {
	filter, errs := parseListQuery(r.URL.Query())
	if len(errs) > 0 {
		writeValidationError(w, "Query validation failed", errs)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	todos, total, err := a.DB.ListTodos(r.Context(), id.SubjectID, filter)
	if err != nil {
		a.internalError(w, r, "Failed to list todos", err)
		return
	}

	data := make([]todoData, 0, len(todos))
	for _, t := range todos {
		data = append(data, toTodoData(t))
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success:    true,
		Data:       data,
		Pagination: &Pagination{Total: total, Limit: filter.Limit, Skip: filter.Skip},
	})
}

func (a *App) HandleGetTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := a.ownedTodo(w, r, "access", "Failed to get todo")
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, toTodoData(todo))
}

func (a *App) HandleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	var req updateTodoRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeValidationError(w, "Validation failed", errs)
		return
	}

	todo, ok := a.ownedTodo(w, r, "update", "Failed to update todo")
	if !ok {
		return
	}
	u := req.update()
	if u.empty() {
		writeSuccess(w, http.StatusOK, toTodoData(todo))
		return
	}

	updated, err := a.DB.UpdateTodo(r.Context(), todo.ID, u)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Todo not found")
		return
	}
	if err != nil {
		a.internalError(w, r, "Failed to update todo", err)
		return
	}
	writeSuccess(w, http.StatusOK, toTodoData(updated))
}

func (a *App) HandleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := a.ownedTodo(w, r, "delete", "Failed to delete todo")
	if !ok {
		return
	}
	err := a.DB.DeleteTodo(r.Context(), todo.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		a.internalError(w, r, "Failed to delete todo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
