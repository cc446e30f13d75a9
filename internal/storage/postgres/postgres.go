package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"barstock/internal/domain/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

type Storage struct {
	db *sql.DB
}

func New(dbUrl string) (*Storage, error) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection error %s", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect database error %s", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

func (s *Storage) SaveUser(ctx context.Context, username string, passHash []byte, role models.Role) error {
	const op = "storage.postgres.SaveUser"

	stmt, err := s.db.Prepare("INSERT INTO users (username, password_hash, role) VALUES($1, $2, $3)")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, username, passHash, role.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByUsername returns ErrNotFound for an unknown username; callers must
// not surface the distinction between that and a wrong password.
func (s *Storage) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgres.UserByUsername"

	var (
		user models.User
		role string
	)

	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1",
		username,
	)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	parsed, ok := models.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%s: unknown role %q", op, role)
	}
	user.Role = parsed

	return &user, nil
}

// ListFilter narrows and orders the inventory listing. The zero value means
// every item, sorted by name ascending.
type ListFilter struct {
	Search string
	SortBy string
	Order  string
}

const liquorColumns = "id, liquor_name, liquor_type, bottle_size, quantity, last_updated, edited_by"

// buildListQuery keeps filtering in SQL: one ILIKE pattern matched against
// every searchable column, and an ORDER BY restricted to whitelisted column
// names so user input never reaches the query text.
func buildListQuery(f ListFilter) (string, []any) {
	query := "SELECT " + liquorColumns + " FROM liquors"

	var args []any
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += " WHERE liquor_name ILIKE $1 OR liquor_type ILIKE $1 OR bottle_size ILIKE $1 OR edited_by ILIKE $1"
	}

	query += " ORDER BY " + sortColumn(f.SortBy) + " " + sortDirection(f.Order)

	return query, args
}

func sortColumn(sortBy string) string {
	switch sortBy {
	case "quantity":
		return "quantity"
	case "type":
		return "liquor_type"
	default:
		return "liquor_name"
	}
}

func sortDirection(order string) string {
	if order == "desc" {
		return "DESC"
	}
	return "ASC"
}

func (s *Storage) ListLiquors(ctx context.Context, f ListFilter) ([]models.Liquor, error) {
	const op = "storage.postgres.ListLiquors"

	query, args := buildListQuery(f)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var liquors []models.Liquor
	for rows.Next() {
		var l models.Liquor
		if err := rows.Scan(&l.ID, &l.Name, &l.Type, &l.BottleSize, &l.Quantity, &l.LastUpdated, &l.EditedBy); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		liquors = append(liquors, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return liquors, nil
}

func (s *Storage) LiquorByID(ctx context.Context, id int) (*models.Liquor, error) {
	const op = "storage.postgres.LiquorByID"

	var l models.Liquor

	row := s.db.QueryRowContext(ctx, "SELECT "+liquorColumns+" FROM liquors WHERE id = $1", id)
	if err := row.Scan(&l.ID, &l.Name, &l.Type, &l.BottleSize, &l.Quantity, &l.LastUpdated, &l.EditedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &l, nil
}

// CreateLiquor inserts the item and its "add" activity entry in one
// transaction; either both rows land or neither does.
func (s *Storage) CreateLiquor(ctx context.Context, l *models.Liquor) error {
	const op = "storage.postgres.CreateLiquor"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO liquors (liquor_name, liquor_type, bottle_size, quantity, last_updated, edited_by)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		l.Name, l.Type, l.BottleSize, l.Quantity, l.LastUpdated, l.EditedBy,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := appendActivity(ctx, tx, l.EditedBy, models.ActionAdd, l.Name, l.LastUpdated); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateLiquor overwrites all mutable fields of the row identified by l.ID
// and appends the "edit" activity entry in the same transaction.
func (s *Storage) UpdateLiquor(ctx context.Context, l *models.Liquor) error {
	const op = "storage.postgres.UpdateLiquor"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE liquors
		 SET liquor_name = $1, liquor_type = $2, bottle_size = $3, quantity = $4, last_updated = $5, edited_by = $6
		 WHERE id = $7`,
		l.Name, l.Type, l.BottleSize, l.Quantity, l.LastUpdated, l.EditedBy, l.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if err := appendActivity(ctx, tx, l.EditedBy, models.ActionEdit, l.Name, l.LastUpdated); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteLiquor captures the item name into the activity log before removing
// the row, all inside one transaction. The log entry outlives the item.
func (s *Storage) DeleteLiquor(ctx context.Context, id int, actor string, when time.Time) error {
	const op = "storage.postgres.DeleteLiquor"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, "SELECT liquor_name FROM liquors WHERE id = $1", id).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := appendActivity(ctx, tx, actor, models.ActionDelete, name, when); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM liquors WHERE id = $1", id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func appendActivity(ctx context.Context, tx *sql.Tx, username string, action models.Action, liquorName string, when time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO activity_logs (username, action, liquor_name, timestamp) VALUES ($1, $2, $3, $4)",
		username, action.String(), liquorName, when,
	)
	return err
}

// ListActivity orders by id, not timestamp, so entries written within the
// same clock tick still come back in insertion order, newest first.
func (s *Storage) ListActivity(ctx context.Context) ([]models.ActivityLog, error) {
	const op = "storage.postgres.ListActivity"

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, action, liquor_name, timestamp FROM activity_logs ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var entries []models.ActivityLog
	for rows.Next() {
		var (
			e      models.ActivityLog
			action string
		)
		if err := rows.Scan(&e.ID, &e.Username, &action, &e.LiquorName, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.Action = models.Action(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

// Setup creates the schema if it does not exist yet. Safe to call twice;
// meant as a one-shot bootstrap, not part of the steady-state request path.
func (s *Storage) Setup(ctx context.Context) error {
	const op = "storage.postgres.Setup"

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'viewer',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS liquors (
			id SERIAL PRIMARY KEY,
			liquor_name VARCHAR(100) NOT NULL,
			liquor_type VARCHAR(50) NOT NULL,
			bottle_size VARCHAR(20) NOT NULL,
			quantity INTEGER NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL,
			edited_by VARCHAR(50) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) NOT NULL,
			action VARCHAR(10) NOT NULL,
			liquor_name VARCHAR(100) NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}
