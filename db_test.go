package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

// testDBContract exercises the behaviour every DB adapter must share.
func testDBContract(t *testing.T, db DB) {
	t.Helper()
	ctx := context.Background()

	// users
	u, err := db.CreateUser(ctx, "it@example.com", "salt:key", "It")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = db.CreateUser(ctx, "it@example.com", "other", "Other")
	assert.ErrorIs(t, err, ErrUserExists)

	got, err := db.GetUserByEmail(ctx, "it@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "salt:key", got.Password)
	assert.Equal(t, "It", got.Name)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

	byID, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "it@example.com", byID.Email)

	missing, err := db.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
	missing, err = db.GetUserByID(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)

	other, err := db.CreateUser(ctx, "other@example.com", "salt:key", "Other")
	require.NoError(t, err)

	// todos
	first, err := db.CreateTodo(ctx, u.ID, "first", "", false)
	require.NoError(t, err)
	second, err := db.CreateTodo(ctx, u.ID, "second", "desc", true)
	require.NoError(t, err)
	third, err := db.CreateTodo(ctx, u.ID, "third", "", false)
	require.NoError(t, err)
	_, err = db.CreateTodo(ctx, other.ID, "not mine", "", false)
	require.NoError(t, err)

	todo, err := db.GetTodoByID(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, todo)
	assert.Equal(t, u.ID, todo.OwnerID)
	assert.Equal(t, "desc", todo.Description)
	assert.True(t, todo.Completed)

	none, err := db.GetTodoByID(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, none)

	list, total, err := db.ListTodos(ctx, u.ID, TodoFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	list, total, err = db.ListTodos(ctx, u.ID, TodoFilter{Completed: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, third.ID, list[1].ID)

	list, total, err = db.ListTodos(ctx, u.ID, TodoFilter{Limit: 1, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	list, total, err = db.ListTodos(ctx, u.ID, TodoFilter{Limit: 5, Skip: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, list)

	updated, err := db.UpdateTodo(ctx, first.ID, TodoUpdate{Title: strPtr("first!"), Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "first!", updated.Title)
	assert.True(t, updated.Completed)
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, u.ID, updated.OwnerID)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	reloaded, err := db.GetTodoByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first!", reloaded.Title)
	assert.True(t, reloaded.Completed)

	_, err = db.UpdateTodo(ctx, "no-such-id", TodoUpdate{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.DeleteTodo(ctx, first.ID))
	assert.ErrorIs(t, db.DeleteTodo(ctx, first.ID), ErrNotFound)
	gone, err := db.GetTodoByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, total, err = db.ListTodos(ctx, u.ID, TodoFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestMemDB(t *testing.T) {
	db := NewMemoryDB()
	require.NoError(t, db.Init())
	testDBContract(t, db)
	assert.True(t, db.ping())
}

func TestMemDB_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	u, err := db.CreateUser(ctx, "a@b.com", "x", "A")
	require.NoError(t, err)
	todo, err := db.CreateTodo(ctx, u.ID, "t", "", false)
	require.NoError(t, err)

	todo.OwnerID = "someone-else"
	stored, err := db.GetTodoByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.OwnerID)
}

func TestSQLiteDB(t *testing.T) {
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.close() })

	testDBContract(t, db)
	assert.True(t, db.ping())
}

func TestSQLiteDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	ctx := context.Background()

	db, err := NewSQLiteDB(path)
	require.NoError(t, err)
	u, err := db.CreateUser(ctx, "keep@example.com", "x", "Keep")
	require.NoError(t, err)
	require.NoError(t, db.close())

	db, err = NewSQLiteDB(path)
	require.NoError(t, err)
	defer db.close()
	got, err := db.GetUserByEmail(ctx, "keep@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
}
