package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ferrostar/askbase/internal/model"
	"github.com/ferrostar/askbase/internal/pkg/dbutil"
	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
)

var sourceFields = []string{"id", "bot_id", "name", "type", "status", "ctime"}

type SourceRepo struct {
	db *sql.DB
}

func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

func (r *SourceRepo) Create(ctx context.Context, source *model.Source) error {
	data := map[string]interface{}{
		"id":     source.ID,
		"bot_id": source.BotID,
		"name":   source.Name,
		"type":   source.Type,
		"status": source.Status,
		"ctime":  source.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("sources", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SourceRepo) UpdateStatus(ctx context.Context, botID, sourceID, status string) error {
	where := map[string]interface{}{
		"id":     sourceID,
		"bot_id": botID,
	}
	update := map[string]interface{}{
		"status": status,
	}
	sqlStr, args, err := builder.BuildUpdate("sources", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *SourceRepo) GetByID(ctx context.Context, botID, sourceID string) (*model.Source, error) {
	where := map[string]interface{}{
		"id":     sourceID,
		"bot_id": botID,
	}
	sqlStr, args, err := builder.BuildSelect("sources", where, sourceFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var source model.Source
	if err := row.Scan(&source.ID, &source.BotID, &source.Name, &source.Type, &source.Status, &source.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &source, nil
}

func (r *SourceRepo) ListByBot(ctx context.Context, botID string) ([]model.Source, error) {
	where := map[string]interface{}{
		"bot_id":   botID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("sources", where, sourceFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sources []model.Source
	for rows.Next() {
		var source model.Source
		if err := rows.Scan(&source.ID, &source.BotID, &source.Name, &source.Type, &source.Status, &source.Ctime); err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// ListStaleProcessing returns sources stuck in processing whose ctime is
// older than the cutoff; used by the ingest reaper.
func (r *SourceRepo) ListStaleProcessing(ctx context.Context, cutoff int64, limit int) ([]model.Source, error) {
	const query = `
		SELECT id, bot_id, name, type, status, ctime
		FROM sources
		WHERE status = $1 AND ctime < $2
		ORDER BY ctime
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, model.SourceStatusProcessing, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sources []model.Source
	for rows.Next() {
		var source model.Source
		if err := rows.Scan(&source.ID, &source.BotID, &source.Name, &source.Type, &source.Status, &source.Ctime); err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (r *SourceRepo) Delete(ctx context.Context, botID, sourceID string) error {
	where := map[string]interface{}{
		"id":     sourceID,
		"bot_id": botID,
	}
	sqlStr, args, err := builder.BuildDelete("sources", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
