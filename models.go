package main

import "time"

// User represents a registered account. Password holds the encoded credential,
// never the plaintext.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Todo represents a task owned by the user that created it.
type Todo struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoFilter narrows and pages a todo listing.
type TodoFilter struct {
	Completed *bool
	Limit     int
	Skip      int
}

// TodoUpdate carries the fields of a partial update; nil fields are left unchanged.
type TodoUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}

func (u TodoUpdate) apply(t *Todo) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
}

func (u TodoUpdate) empty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil
}
