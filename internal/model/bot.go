package model

type Bot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Public      bool    `json:"public"`
	RequireLead bool    `json:"require_lead"`
	Ctime       int64   `json:"ctime"`
}
