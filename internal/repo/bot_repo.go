package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ferrostar/askbase/internal/model"
	"github.com/ferrostar/askbase/internal/pkg/dbutil"
	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
)

var botFields = []string{"id", "name", "prompt", "model", "temperature", "public", "require_lead", "ctime"}

type BotRepo struct {
	db *sql.DB
}

func NewBotRepo(db *sql.DB) *BotRepo {
	return &BotRepo{db: db}
}

func (r *BotRepo) Create(ctx context.Context, bot *model.Bot) error {
	data := map[string]interface{}{
		"id":           bot.ID,
		"name":         bot.Name,
		"prompt":       bot.Prompt,
		"model":        bot.Model,
		"temperature":  bot.Temperature,
		"public":       bot.Public,
		"require_lead": bot.RequireLead,
		"ctime":        bot.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("bots", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *BotRepo) GetByID(ctx context.Context, botID string) (*model.Bot, error) {
	where := map[string]interface{}{
		"id": botID,
	}
	sqlStr, args, err := builder.BuildSelect("bots", where, botFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var bot model.Bot
	if err := row.Scan(&bot.ID, &bot.Name, &bot.Prompt, &bot.Model, &bot.Temperature, &bot.Public, &bot.RequireLead, &bot.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &bot, nil
}
