// Package tasks provides the PostgreSQL-backed, owner-scoped task store.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

const taskColumns = `id, owner_id, title, description, status, priority, created_at, updated_at`

// PostgresRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	t := &models.Task{}
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (owner_id, title, description, status, priority)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID, task.Title, task.Description, string(task.Status), string(task.Priority)).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

// List returns one page of the owner's tasks, newest first. Search matches
// title or description case-insensitively and treats wildcards literally.
func (r *PostgresRepository) List(ctx context.Context, ownerID int64, opts models.ListOptions) ([]*models.Task, error) {
	query, args := buildListQuery(ownerID, opts)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func buildListQuery(ownerID int64, opts models.ListOptions) (string, []any) {
	var b strings.Builder
	args := []any{ownerID}

	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		fmt.Fprintf(&b, ` AND status = $%d`, len(args))
	}
	if opts.Priority != nil {
		args = append(args, string(*opts.Priority))
		fmt.Fprintf(&b, ` AND priority = $%d`, len(args))
	}
	if opts.Search != nil {
		args = append(args, "%"+escapeLike(*opts.Search)+"%")
		n := len(args)
		fmt.Fprintf(&b, ` AND (title ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\')`, n, n)
	}

	args = append(args, opts.Limit, opts.Skip)
	fmt.Fprintf(&b, ` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id int64) (*models.Task, error) {
	query :=
		`SELECT ` + taskColumns + `
		 FROM tasks
		 WHERE id = $1 AND owner_id = $2
		 `

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// Update applies the present fields of patch to the owner's task in a single
// statement and refreshes updated_at. Absent fields keep the stored value, so
// concurrent patches of different fields do not overwrite each other.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id int64, patch models.TaskPatch) (*models.Task, error) {
	query :=
		`UPDATE tasks
		 SET title = CASE WHEN $3::boolean THEN $4::text ELSE title END,
		     description = CASE WHEN $5::boolean THEN $6::text ELSE description END,
		     status = CASE WHEN $7::boolean THEN $8::text ELSE status END,
		     priority = CASE WHEN $9::boolean THEN $10::text ELSE priority END,
		     updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING ` + taskColumns + `
		 `

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID,
		patch.Title.Set, patch.Title.Value,
		patch.Description.Set, patch.Description.Value,
		patch.Status.Set, string(patch.Status.Value),
		patch.Priority.Set, string(patch.Priority.Value)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	n, err := dbx.ExecAffected(ctx, r.db, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// DeleteByOwner removes every task of ownerID and returns how many were removed.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	return dbx.ExecAffected(ctx, r.db, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
}
