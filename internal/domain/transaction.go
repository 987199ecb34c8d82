package domain

import "time"

// Transaction status values assigned by the upstream risk scorer.
const (
	StatusClear   = "clear"
	StatusReview  = "review"
	StatusFlagged = "flagged"
)

// Transaction models a transfer node in the graph. SenderID and ReceiverID
// reference user ids but are not validated for existence.
type Transaction struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	RiskScore  float64   `json:"risk_score"`
	IPAddress  string    `json:"ip_address"`
	DeviceID   string    `json:"device_id"`
	Timestamp  time.Time `json:"timestamp"`
}
