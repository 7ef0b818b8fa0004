package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

type PostgresDB struct {
	db  *sql.DB
	dsn string
}

func NewPostgresDB(dsn string) (*PostgresDB, error) {
	d, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	p := &PostgresDB{db: d, dsn: dsn}
	if err := p.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresDB) Init() error {
	// rely on migrations to create tables; just verify connectivity
	return p.db.Ping()
}

func isPgUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

func (p *PostgresDB) CreateUser(ctx context.Context, email, passwordHash, name string) (*User, error) {
	ts := now()
	u := &User{ID: newID(), Email: email, Password: passwordHash, Name: name, CreatedAt: ts, UpdatedAt: ts}
	_, err := p.db.ExecContext(ctx, `INSERT INTO users(id,email,password,name,created_at,updated_at) VALUES($1,$2,$3,$4,$5,$5)`,
		u.ID, u.Email, u.Password, u.Name, ts)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

func (p *PostgresDB) scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, `SELECT id,email,password,name,created_at,updated_at FROM users WHERE email = $1`, email))
}

func (p *PostgresDB) GetUserByID(ctx context.Context, id string) (*User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, `SELECT id,email,password,name,created_at,updated_at FROM users WHERE id = $1`, id))
}

const pgTodoColumns = `id,user_id,title,description,completed,created_at,updated_at`

func scanPgTodo(row rowScanner) (*Todo, error) {
	var t Todo
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func (p *PostgresDB) CreateTodo(ctx context.Context, ownerID, title, description string, completed bool) (*Todo, error) {
	ts := now()
	t := &Todo{ID: newID(), OwnerID: ownerID, Title: title, Description: description, Completed: completed, CreatedAt: ts, UpdatedAt: ts}
	_, err := p.db.ExecContext(ctx, `INSERT INTO todos(`+pgTodoColumns+`) VALUES($1,$2,$3,$4,$5,$6,$6)`,
		t.ID, t.OwnerID, t.Title, t.Description, t.Completed, ts)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *PostgresDB) GetTodoByID(ctx context.Context, id string) (*Todo, error) {
	t, err := scanPgTodo(p.db.QueryRowContext(ctx, `SELECT `+pgTodoColumns+` FROM todos WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (p *PostgresDB) ListTodos(ctx context.Context, ownerID string, f TodoFilter) ([]*Todo, int, error) {
	// a NULL completed parameter disables the filter; a NULL limit means LIMIT ALL
	var completed sql.NullBool
	if f.Completed != nil {
		completed = sql.NullBool{Bool: *f.Completed, Valid: true}
	}
	var limit sql.NullInt64
	if f.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(f.Limit), Valid: true}
	}
	const where = `WHERE user_id = $1 AND ($2::boolean IS NULL OR completed = $2)`

	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos `+where, ownerID, completed).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := p.db.QueryContext(ctx, `SELECT `+pgTodoColumns+` FROM todos `+where+` ORDER BY created_at, id LIMIT $3 OFFSET $4`,
		ownerID, completed, limit, f.Skip)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var todos []*Todo
	for rows.Next() {
		t, err := scanPgTodo(rows)
		if err != nil {
			return nil, 0, err
		}
		todos = append(todos, t)
	}
	return todos, total, rows.Err()
}

func (p *PostgresDB) UpdateTodo(ctx context.Context, id string, u TodoUpdate) (*Todo, error) {
	var title, description sql.NullString
	var completed sql.NullBool
	if u.Title != nil {
		title = sql.NullString{String: *u.Title, Valid: true}
	}
	if u.Description != nil {
		description = sql.NullString{String: *u.Description, Valid: true}
	}
	if u.Completed != nil {
		completed = sql.NullBool{Bool: *u.Completed, Valid: true}
	}
	row := p.db.QueryRowContext(ctx, `UPDATE todos SET
		title = COALESCE($2, title),
		description = COALESCE($3, description),
		completed = COALESCE($4, completed),
		updated_at = $5
		WHERE id = $1 RETURNING `+pgTodoColumns, id, title, description, completed, now())
	t, err := scanPgTodo(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

func (p *PostgresDB) DeleteTodo(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
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

func (p *PostgresDB) close() error { return p.db.Close() }
func (p *PostgresDB) ping() bool   { return p.db.Ping() == nil }
