package service

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ferrostar/askbase/internal/model"
	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
	"github.com/ferrostar/askbase/internal/repo"
)

var emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// DetectEmail returns the first syntactically valid email address found in
// text, lower-cased, or "" when none is present.
func DetectEmail(text string) string {
	for _, candidate := range emailRe.FindAllString(text, -1) {
		if _, err := mail.ParseAddress(candidate); err != nil {
			continue
		}
		return strings.ToLower(strings.TrimSpace(candidate))
	}
	return ""
}

type LeadService struct {
	leads    *repo.LeadRepo
	bots     *repo.BotRepo
	sender   EmailSender
	notifyTo string
}

func NewLeadService(leads *repo.LeadRepo, bots *repo.BotRepo, sender EmailSender, notifyTo string) *LeadService {
	return &LeadService{leads: leads, bots: bots, sender: sender, notifyTo: notifyTo}
}

// CaptureFromMessage scans one user message for an email address and records
// it as a lead when found. Duplicates are a no-op. Used from the chat side
// channel, so every failure is logged and swallowed here.
func (s *LeadService) CaptureFromMessage(ctx context.Context, bot *model.Bot, sessionID, text string) {
	email := DetectEmail(text)
	if email == "" {
		return
	}
	if _, err := s.Capture(ctx, bot, sessionID, email, ""); err != nil && !appErr.IsConflict(err) {
		logutil.GetLogger(ctx).Error("capture lead from message failed",
			zap.String("bot_id", bot.ID), zap.Error(err))
	}
}

// Capture records one lead for the bot and attempts the operator
// notification. A lead already known for this bot returns ErrConflict; the
// unique constraint on (bot_id, email) is the authority, so two racing
// detections still land on a single row.
func (s *LeadService) Capture(ctx context.Context, bot *model.Bot, sessionID, email, name string) (*model.Lead, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, appErr.ErrInvalid
	}
	now := time.Now().UnixMilli()
	lead := &model.Lead{
		ID:        newID(),
		BotID:     bot.ID,
		Email:     email,
		Name:      strings.TrimSpace(name),
		SessionID: sessionID,
		Status:    model.LeadStatusPending,
		Ctime:     now,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}
	s.notify(ctx, bot, lead)
	return lead, nil
}

// CaptureForBot is the pre-chat capture path: it resolves the bot first so an
// unknown or hidden bot surfaces as not found.
func (s *LeadService) CaptureForBot(ctx context.Context, botID, sessionID, email, name string) (*model.Lead, error) {
	bot, err := s.bots.GetByID(ctx, botID)
	if err != nil {
		return nil, err
	}
	return s.Capture(ctx, bot, sessionID, email, name)
}

func (s *LeadService) ListByBot(ctx context.Context, botID string, limit int) ([]model.Lead, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.leads.ListByBot(ctx, botID, limit)
}

func (s *LeadService) notify(ctx context.Context, bot *model.Bot, lead *model.Lead) {
	capturedAt := time.UnixMilli(lead.Ctime).UTC().Format(time.RFC3339)
	subject := fmt.Sprintf("New lead captured from %s", bot.Name)
	body := fmt.Sprintf("New lead captured!\n\n"+
		"Bot name: %s\n"+
		"Email: %s\n"+
		"Session ID: %s\n"+
		"Captured at: %s\n",
		bot.Name, lead.Email, lead.SessionID, capturedAt)
	if lead.Name != "" {
		body += fmt.Sprintf("Name: %s\n", lead.Name)
	}

	err := appErr.ErrNotConfigured
	if s.notifyTo != "" {
		err = s.sender.Send(s.notifyTo, subject, body)
	}
	attempts := lead.Attempts + 1
	if err != nil {
		logutil.GetLogger(ctx).Error("lead notification failed",
			zap.String("lead_id", lead.ID), zap.Error(err))
		lead.Status = model.LeadStatusFailed
		lead.Attempts = attempts
		lead.LastError = err.Error()
		if uerr := s.leads.MarkFailed(ctx, lead.ID, attempts, err.Error()); uerr != nil {
			logutil.GetLogger(ctx).Error("mark lead failed failed",
				zap.String("lead_id", lead.ID), zap.Error(uerr))
		}
		return
	}
	sentAt := time.Now().UnixMilli()
	lead.Status = model.LeadStatusSent
	lead.Attempts = attempts
	lead.SentAt = sentAt
	if uerr := s.leads.MarkSent(ctx, lead.ID, sentAt, attempts); uerr != nil {
		logutil.GetLogger(ctx).Error("mark lead sent failed",
			zap.String("lead_id", lead.ID), zap.Error(uerr))
	}
}
