package domain

// Relationship type names as stored in the graph database.
const (
	RelSent          = "SENT"
	RelInitiated     = "INITIATED"
	RelReceived      = "RECEIVED"
	RelSharedEmail   = "SHARED_EMAIL"
	RelSharedPhone   = "SHARED_PHONE"
	RelSharedAddress = "SHARED_ADDRESS"
	RelSharedPayment = "SHARED_PAYMENT"
	RelSameIP        = "SAME_IP"
	RelSameDevice    = "SAME_DEVICE"
)

// UserConnections groups everything directly connected to a user: counterparties
// they sent money to, users sharing identifying attributes, and their transactions.
type UserConnections struct {
	UserID        string
	SentTo        []User
	SharedEmail   []User
	SharedPhone   []User
	SharedAddress []User
	SharedPayment []User
	Transactions  []Transaction
}

// TransactionUserLink is a user attached to a transaction with its role.
type TransactionUserLink struct {
	User     User
	LinkType string // INITIATED or RECEIVED
}

// LinkedTransaction is another transaction connected through shared context.
type LinkedTransaction struct {
	Transaction Transaction
	LinkType    string // SAME_IP or SAME_DEVICE
}

// TransactionConnections groups everything directly connected to a transaction.
type TransactionConnections struct {
	TransactionID      string
	Users              []TransactionUserLink
	LinkedTransactions []LinkedTransaction
}
