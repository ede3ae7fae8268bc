package model

const (
	LeadStatusPending = "pending"
	LeadStatusSent    = "sent"
	LeadStatusFailed  = "failed"
)

// Lead is one captured contact email for one bot. At most one row exists per
// (bot, email) pair, enforced by a unique constraint.
type Lead struct {
	ID        string `json:"id"`
	BotID     string `json:"bot_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`
	SentAt    int64  `json:"sent_at,omitempty"`
	Ctime     int64  `json:"ctime"`
}
