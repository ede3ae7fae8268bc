package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ferrostar/askbase/internal/model"
	"github.com/ferrostar/askbase/internal/pkg/dbutil"
	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
)

var leadFields = []string{"id", "bot_id", "email", "name", "session_id", "status", "attempts", "last_error", "sent_at", "ctime"}

type LeadRepo struct {
	db *sql.DB
}

func NewLeadRepo(db *sql.DB) *LeadRepo {
	return &LeadRepo{db: db}
}

// Create inserts a new lead. The (bot_id, email) unique constraint is the
// duplicate check: a violation surfaces as ErrConflict, meaning the lead
// already exists.
func (r *LeadRepo) Create(ctx context.Context, lead *model.Lead) error {
	data := map[string]interface{}{
		"id":         lead.ID,
		"bot_id":     lead.BotID,
		"email":      lead.Email,
		"name":       lead.Name,
		"session_id": lead.SessionID,
		"status":     lead.Status,
		"attempts":   lead.Attempts,
		"last_error": lead.LastError,
		"sent_at":    lead.SentAt,
		"ctime":      lead.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("leads", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsUniqueViolation(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *LeadRepo) GetByBotEmail(ctx context.Context, botID, email string) (*model.Lead, error) {
	where := map[string]interface{}{
		"bot_id": botID,
		"email":  email,
	}
	sqlStr, args, err := builder.BuildSelect("leads", where, leadFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	lead, err := scanLead(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepo) MarkSent(ctx context.Context, leadID string, sentAt int64, attempts int) error {
	return r.update(ctx, leadID, map[string]interface{}{
		"status":     model.LeadStatusSent,
		"sent_at":    sentAt,
		"attempts":   attempts,
		"last_error": "",
	})
}

func (r *LeadRepo) MarkFailed(ctx context.Context, leadID string, attempts int, lastError string) error {
	return r.update(ctx, leadID, map[string]interface{}{
		"status":     model.LeadStatusFailed,
		"attempts":   attempts,
		"last_error": lastError,
	})
}

func (r *LeadRepo) update(ctx context.Context, leadID string, update map[string]interface{}) error {
	where := map[string]interface{}{
		"id": leadID,
	}
	sqlStr, args, err := builder.BuildUpdate("leads", where, update)
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

func (r *LeadRepo) ListByBot(ctx context.Context, botID string, limit int) ([]model.Lead, error) {
	where := map[string]interface{}{
		"bot_id":   botID,
		"_orderby": "ctime desc",
		"_limit":   []uint{uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("leads", where, leadFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*model.Lead, error) {
	var lead model.Lead
	if err := row.Scan(&lead.ID, &lead.BotID, &lead.Email, &lead.Name, &lead.SessionID, &lead.Status, &lead.Attempts, &lead.LastError, &lead.SentAt, &lead.Ctime); err != nil {
		return nil, err
	}
	return &lead, nil
}
