package service

import "time"

// UserInput is the inbound payload accepted by the ingestion layer.
type UserInput struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PaymentMethod string `json:"payment_method"`
}

// TransactionInput models data required to upsert a transaction and derive
// its graph relationships.
type TransactionInput struct {
	ID         string    `json:"id" validate:"required"`
	SenderID   string    `json:"sender_id" validate:"required"`
	ReceiverID string    `json:"receiver_id" validate:"required"`
	Amount     float64   `json:"amount" validate:"gte=0"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status" validate:"omitempty,oneof=clear review flagged"`
	RiskScore  float64   `json:"risk_score" validate:"gte=0,lte=1"`
	IPAddress  string    `json:"ip_address"`
	DeviceID   string    `json:"device_id"`
	Timestamp  time.Time `json:"timestamp"`
}
