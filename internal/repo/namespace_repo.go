package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/dbutil"
	appErr "github.com/merchantiq/docengine/internal/pkg/errors"
)

type NamespaceRepo struct {
	db *sql.DB
}

func NewNamespaceRepo(db *sql.DB) *NamespaceRepo {
	return &NamespaceRepo{db: db}
}

func (r *NamespaceRepo) Create(ctx context.Context, ns *model.Namespace) error {
	data := map[string]interface{}{
		"owner_id": ns.OwnerID,
		"name":     ns.Name,
		"kind":     string(ns.Kind),
		"priority": ns.Priority,
		"ctime":    ns.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("namespaces", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *NamespaceRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Namespace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, kind, priority, ctime FROM namespaces WHERE owner_id = $1 ORDER BY priority DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*model.Namespace
	for rows.Next() {
		var ns model.Namespace
		var kind string
		if err := rows.Scan(&ns.ID, &ns.OwnerID, &ns.Name, &kind, &ns.Priority, &ns.Ctime); err != nil {
			return nil, err
		}
		ns.Kind = model.NamespaceKind(kind)
		items = append(items, &ns)
	}
	return items, rows.Err()
}

func (r *NamespaceRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM namespaces WHERE owner_id = $1`, ownerID).Scan(&count)
	return count, err
}
