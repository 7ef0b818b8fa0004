package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrUserExists = errors.New("user already exists")
	ErrNotFound   = errors.New("not found")
)

// DB is the persistence boundary of the service. Lookups return (nil, nil)
// when the record does not exist; mutations of a missing record return ErrNotFound.
type DB interface {
	Init() error
	// User operations
	CreateUser(ctx context.Context, email, passwordHash, name string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	// Todo operations
	CreateTodo(ctx context.Context, ownerID, title, description string, completed bool) (*Todo, error)
	GetTodoByID(ctx context.Context, id string) (*Todo, error)
	ListTodos(ctx context.Context, ownerID string, f TodoFilter) ([]*Todo, int, error)
	UpdateTodo(ctx context.Context, id string, u TodoUpdate) (*Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

func newID() string { return uuid.NewString() }

// now is the timestamp stored on records. Postgres keeps microseconds, so every
// adapter does the same.
func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// Memory DB
type MemDB struct {
	mu        sync.RWMutex
	users     map[string]*User // by id
	emails    map[string]string
	todos     map[string]*Todo
	todoOrder []string
}

func NewMemoryDB() *MemDB {
	return &MemDB{users: map[string]*User{}, emails: map[string]string{}, todos: map[string]*Todo{}}
}

func (m *MemDB) Init() error { return nil }

func (m *MemDB) CreateUser(_ context.Context, email, passwordHash, name string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emails[email]; ok {
		return nil, ErrUserExists
	}
	ts := now()
	u := &User{ID: newID(), Email: email, Password: passwordHash, Name: name, CreatedAt: ts, UpdatedAt: ts}
	m.users[u.ID] = u
	m.emails[email] = u.ID
	c := *u
	return &c, nil
}

func (m *MemDB) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.emails[email]; ok {
		c := *m.users[id]
		return &c, nil
	}
	return nil, nil
}

func (m *MemDB) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *MemDB) CreateTodo(_ context.Context, ownerID, title, description string, completed bool) (*Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := now()
	t := &Todo{ID: newID(), OwnerID: ownerID, Title: title, Description: description, Completed: completed, CreatedAt: ts, UpdatedAt: ts}
	m.todos[t.ID] = t
	m.todoOrder = append(m.todoOrder, t.ID)
	c := *t
	return &c, nil
}

func (m *MemDB) GetTodoByID(_ context.Context, id string) (*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.todos[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (m *MemDB) ListTodos(_ context.Context, ownerID string, f TodoFilter) ([]*Todo, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*Todo
	for _, id := range m.todoOrder {
		t := m.todos[id]
		if t.OwnerID != ownerID {
			continue
		}
		if f.Completed != nil && t.Completed != *f.Completed {
			continue
		}
		c := *t
		matched = append(matched, &c)
	}
	return page(matched, f), len(matched), nil
}

func page(todos []*Todo, f TodoFilter) []*Todo {
	start := f.Skip
	if start > len(todos) {
		start = len(todos)
	}
	end := len(todos)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return todos[start:end]
}

func (m *MemDB) UpdateTodo(_ context.Context, id string, u TodoUpdate) (*Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.apply(t)
	t.UpdatedAt = now()
	c := *t
	return &c, nil
}

func (m *MemDB) DeleteTodo(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.todos[id]; !ok {
		return ErrNotFound
	}
	delete(m.todos, id)
	if i := slices.Index(m.todoOrder, id); i >= 0 {
		m.todoOrder = slices.Delete(m.todoOrder, i, i+1)
	}
	return nil
}

// SQLite DB
type SQLiteDB struct {
	db   *sql.DB
	path string
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps ":memory:" databases on a single connection
	d.SetMaxOpenConns(1)
	s := &SQLiteDB{db: d, path: path}
	if err := s.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteDB) Init() error {
	queries := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, password TEXT NOT NULL, name TEXT NOT NULL, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS todos (id TEXT PRIMARY KEY, user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE, title TEXT NOT NULL, description TEXT NOT NULL DEFAULT '', completed INTEGER NOT NULL DEFAULT 0, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Fixed width so that ORDER BY on the text column is chronological.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(sqliteTimeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func (s *SQLiteDB) CreateUser(ctx context.Context, email, passwordHash, name string) (*User, error) {
	ts := now()
	u := &User{ID: newID(), Email: email, Password: passwordHash, Name: name, CreatedAt: ts, UpdatedAt: ts}
	_, err := s.db.ExecContext(ctx, `INSERT INTO users(id,email,password,name,created_at,updated_at) VALUES(?,?,?,?,?,?)`,
		u.ID, u.Email, u.Password, u.Name, formatTime(ts), formatTime(ts))
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

func (s *SQLiteDB) scanUser(row *sql.Row) (*User, error) {
	var u User
	var created, updated string
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteDB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id,email,password,name,created_at,updated_at FROM users WHERE email = ?`, email))
}

func (s *SQLiteDB) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id,email,password,name,created_at,updated_at FROM users WHERE id = ?`, id))
}

const sqliteTodoColumns = `id,user_id,title,description,completed,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTodo(row rowScanner) (*Todo, error) {
	var t Todo
	var completed int
	var created, updated string
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &completed, &created, &updated); err != nil {
		return nil, err
	}
	t.Completed = completed != 0
	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteDB) CreateTodo(ctx context.Context, ownerID, title, description string, completed bool) (*Todo, error) {
	ts := now()
	t := &Todo{ID: newID(), OwnerID: ownerID, Title: title, Description: description, Completed: completed, CreatedAt: ts, UpdatedAt: ts}
	_, err := s.db.ExecContext(ctx, `INSERT INTO todos(`+sqliteTodoColumns+`) VALUES(?,?,?,?,?,?,?)`,
		t.ID, t.OwnerID, t.Title, t.Description, boolToInt(t.Completed), formatTime(ts), formatTime(ts))
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SQLiteDB) GetTodoByID(ctx context.Context, id string) (*Todo, error) {
	t, err := scanSQLiteTodo(s.db.QueryRowContext(ctx, `SELECT `+sqliteTodoColumns+` FROM todos WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (s *SQLiteDB) ListTodos(ctx context.Context, ownerID string, f TodoFilter) ([]*Todo, int, error) {
	where := `WHERE user_id = ?`
	args := []any{ownerID}
	if f.Completed != nil {
		where += ` AND completed = ?`
		args = append(args, boolToInt(*f.Completed))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := -1
	if f.Limit > 0 {
		limit = f.Limit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteTodoColumns+` FROM todos `+where+` ORDER BY created_at, rowid LIMIT ? OFFSET ?`,
		append(args, limit, f.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var todos []*Todo
	for rows.Next() {
		t, err := scanSQLiteTodo(rows)
		if err != nil {
			return nil, 0, err
		}
		todos = append(todos, t)
	}
	return todos, total, rows.Err()
}

func (s *SQLiteDB) UpdateTodo(ctx context.Context, id string, u TodoUpdate) (*Todo, error) {
	t, err := s.GetTodoByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	u.apply(t)
	t.UpdatedAt = now()
	_, err = s.db.ExecContext(ctx, `UPDATE todos SET title = ?, description = ?, completed = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, boolToInt(t.Completed), formatTime(t.UpdatedAt), id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SQLiteDB) DeleteTodo(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// lifecycle helpers
func (m *MemDB) close() error { return nil }
func (m *MemDB) ping() bool   { return true }

func (s *SQLiteDB) close() error { return s.db.Close() }
func (s *SQLiteDB) ping() bool   { return s.db.Ping() == nil }
