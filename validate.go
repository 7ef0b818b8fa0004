package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maxBodyBytes      = 1 << 20
	minPasswordLength = 8
	maxNameLength     = 100
	maxTitleLength    = 200
	defaultListLimit  = 20
	maxListLimit      = 100
)

var errInvalidBody = errors.New("invalid request body")

// decodeBody decodes a JSON object body into v. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidBody
	}
	// exactly one value
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

type registerRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type createTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

func checkEmail(errs []FieldError, email *string) []FieldError {
	switch {
	case email == nil:
		return append(errs, FieldError{"email", "Email is required"})
	case !validEmail(*email):
		return append(errs, FieldError{"email", "Invalid email format"})
	}
	return errs
}

func (req registerRequest) validate() []FieldError {
	errs := checkEmail(nil, req.Email)
	switch {
	case req.Password == nil:
		errs = append(errs, FieldError{"password", "Password is required"})
	case utf8.RuneCountInString(*req.Password) < minPasswordLength:
		errs = append(errs, FieldError{"password", "Password must be at least 8 characters"})
	}
	switch {
	case req.Name == nil || *req.Name == "":
		errs = append(errs, FieldError{"name", "Name is required"})
	case utf8.RuneCountInString(*req.Name) > maxNameLength:
		errs = append(errs, FieldError{"name", "Name must be less than 100 characters"})
	}
	return errs
}

func (req loginRequest) validate() []FieldError {
	errs := checkEmail(nil, req.Email)
	if req.Password == nil {
		errs = append(errs, FieldError{"password", "Password is required"})
	}
	return errs
}

func checkTitle(errs []FieldError, title string, emptyMsg string) []FieldError {
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		return append(errs, FieldError{"title", emptyMsg})
	case n > maxTitleLength:
		return append(errs, FieldError{"title", "Title must be less than 200 characters"})
	}
	return errs
}

func (req createTodoRequest) validate() []FieldError {
	if req.Title == nil {
		return []FieldError{{"title", "Title is required"}}
	}
	return checkTitle(nil, *req.Title, "Title is required")
}

func (req updateTodoRequest) validate() []FieldError {
	if req.Title == nil {
		return nil
	}
	return checkTitle(nil, *req.Title, "Title cannot be empty")
}

func (req updateTodoRequest) update() TodoUpdate {
	return TodoUpdate{Title: req.Title, Description: req.Description, Completed: req.Completed}
}

// parseListQuery reads completed, limit and skip from a todo listing query.
func parseListQuery(q url.Values) (TodoFilter, []FieldError) {
	f := TodoFilter{Limit: defaultListLimit}
	var errs []FieldError

	switch v := q.Get("completed"); v {
	case "":
	case "true", "false":
		b := v == "true"
		f.Completed = &b
	default:
		errs = append(errs, FieldError{"completed", "Expected 'true' or 'false'"})
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			errs = append(errs, FieldError{"limit", "Limit must be an integer between 1 and 100"})
		} else {
			f.Limit = n
		}
	}

	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{"skip", "Skip must be a non-negative integer"})
		} else {
			f.Skip = n
		}
	}

	return f, errs
}
