// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/rigzba21/si/internal/dal/model"
)

// Cond filters a List by a JSON field of the stored entity, e.g.
// {Path: "context.prop_id", Value: propID.String()}.
type Cond struct {
	Path  string
	Value any
}

// Eq is shorthand for a single equality condition.
func Eq(path string, value any) Cond {
	return Cond{Path: path, Value: value}
}

// Insert stores a new row version under the transaction's change set.
// Inserting an id that already has a row version there is an error.
func Insert[T any](ctx context.Context, tx *Tx, kind Kind, id model.ID, obj *T) error {
	ctx, span := tracer.Start(ctx, "datastore.Insert")
	defer span.End()

	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", kind, id, err)
	}

	now := nowUTC()
	_, err = tx.tx.ExecContext(ctx, `
		INSERT INTO objects (kind, id, workspace_id, change_set_id, deleted, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		string(kind), id.String(), tx.tenancy.WorkspaceID.String(), tx.changeSetColumn(), now, now, string(data))
	if err != nil {
		return fmt.Errorf("insert %s %s: %w", kind, id, err)
	}
	return nil
}

// Update writes the entity under the transaction's change set. When the
// change set does not own a row version yet, a shadow copy is created;
// head rows are never touched from a change set. The entity id stays
// stable across the copy.
func Update[T any](ctx context.Context, tx *Tx, kind Kind, id model.ID, obj *T) error {
	ctx, span := tracer.Start(ctx, "datastore.Update")
	defer span.End()

	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", kind, id, err)
	}

	now := nowUTC()
	_, err = tx.tx.ExecContext(ctx, `
		INSERT INTO objects (kind, id, workspace_id, change_set_id, deleted, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)
		ON CONFLICT (workspace_id, kind, id, change_set_id)
		DO UPDATE SET data = excluded.data, deleted = 0, updated_at = excluded.updated_at`,
		string(kind), id.String(), tx.tenancy.WorkspaceID.String(), tx.changeSetColumn(), now, now, string(data))
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	return nil
}

// Get returns the winning row version for the transaction's
// visibility: the change set's own version when present, the head
// version otherwise. A deleted winner reads as not found.
func Get[T any](ctx context.Context, tx *Tx, kind Kind, id model.ID) (*T, error) {
	ctx, span := tracer.Start(ctx, "datastore.Get")
	defer span.End()

	row := tx.tx.QueryRowContext(ctx, `
		SELECT data, deleted FROM objects
		WHERE workspace_id = ? AND kind = ? AND id = ? AND change_set_id IN (?, ?)
		ORDER BY CASE WHEN change_set_id = ? THEN 0 ELSE 1 END
		LIMIT 1`,
		tx.tenancy.WorkspaceID.String(), string(kind), id.String(),
		tx.changeSetColumn(), headColumn(), tx.changeSetColumn())

	var data string
	var deleted bool
	if err := row.Scan(&data, &deleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Kind: kind, ID: id}
		}
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	if deleted {
		return nil, &NotFoundError{Kind: kind, ID: id}
	}

	var obj T
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal %s %s: %w", kind, id, err)
	}
	return &obj, nil
}

// List returns all visible entities of a kind matching the conditions,
// ordered by id (creation order, since ids sort).
func List[T any](ctx context.Context, tx *Tx, kind Kind, conds ...Cond) ([]T, error) {
	ctx, span := tracer.Start(ctx, "datastore.List")
	defer span.End()

	var sb strings.Builder
	args := []any{tx.tenancy.WorkspaceID.String(), string(kind), tx.changeSetColumn(), headColumn()}

	sb.WriteString(`
		SELECT o.data FROM objects o
		WHERE o.workspace_id = ? AND o.kind = ? AND o.change_set_id IN (?, ?)
		AND o.deleted = 0`)

	// A head row loses to any row version the change set owns for the
	// same id, deleted markers included.
	if !tx.visibility.IsHead() {
		sb.WriteString(`
		AND NOT (o.change_set_id = ? AND EXISTS (
			SELECT 1 FROM objects s
			WHERE s.workspace_id = o.workspace_id AND s.kind = o.kind
			AND s.id = o.id AND s.change_set_id = ?))`)
		args = append(args, headColumn(), tx.changeSetColumn())
	}

	for _, c := range conds {
		sb.WriteString(" AND json_extract(o.data, ?) = ?")
		args = append(args, normalizeJSONPath(c.Path), c.Value)
	}
	sb.WriteString(" ORDER BY o.id")

	rows, err := tx.tx.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		var obj T
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", kind, err)
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

// First returns the first visible match or a NotFoundError.
func First[T any](ctx context.Context, tx *Tx, kind Kind, conds ...Cond) (*T, error) {
	items, err := List[T](ctx, tx, kind, conds...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &NotFoundError{Kind: kind}
	}
	return &items[0], nil
}

// Delete removes the entity under the transaction's visibility. On
// head the row versions are dropped outright; under a change set a
// deleted marker shadows the head row, leaving head untouched.
func Delete(ctx context.Context, tx *Tx, kind Kind, id model.ID) error {
	ctx, span := tracer.Start(ctx, "datastore.Delete")
	defer span.End()

	if tx.visibility.IsHead() {
		_, err := tx.tx.ExecContext(ctx, `
			DELETE FROM objects WHERE workspace_id = ? AND kind = ? AND id = ? AND change_set_id = ?`,
			tx.tenancy.WorkspaceID.String(), string(kind), id.String(), headColumn())
		if err != nil {
			return fmt.Errorf("delete %s %s: %w", kind, id, err)
		}
		return nil
	}

	now := nowUTC()
	_, err := tx.tx.ExecContext(ctx, `
		INSERT INTO objects (kind, id, workspace_id, change_set_id, deleted, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, 1, ?, ?, '{}')
		ON CONFLICT (workspace_id, kind, id, change_set_id)
		DO UPDATE SET deleted = 1, updated_at = excluded.updated_at`,
		string(kind), id.String(), tx.tenancy.WorkspaceID.String(), tx.changeSetColumn(), now, now)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	return nil
}

// Exists reports whether the entity is visible.
func Exists[T any](ctx context.Context, tx *Tx, kind Kind, id model.ID) (bool, error) {
	_, err := Get[T](ctx, tx, kind, id)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
