package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/meera/framl/internal/domain"
	"github.com/meera/framl/internal/repository"
)

// GraphRepository is the storage contract required by the relationship service.
type GraphRepository interface {
	UpsertUser(ctx context.Context, user domain.User) error
	UpsertTransaction(ctx context.Context, tx domain.Transaction) error
	ListUsers(ctx context.Context, opts repository.ListUsersOptions) (domain.UserListResult, error)
	ListTransactions(ctx context.Context, opts repository.ListTransactionsOptions) (domain.TransactionListResult, error)
	FetchUserConnections(ctx context.Context, userID string) (domain.UserConnections, error)
	FetchTransactionConnections(ctx context.Context, txID string) (domain.TransactionConnections, error)
	Stats(ctx context.Context) (domain.GraphStats, error)
	ShortestPath(ctx context.Context, sourceID, targetID string) (domain.PathResult, error)
	ExportUsers(ctx context.Context) ([]domain.User, error)
	ExportTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// RelationshipService orchestrates ingestion and lookups, delegating persistence
// to the repository.
type RelationshipService struct {
	repo  GraphRepository
	nowFn func() time.Time
}

// ListUsersParams defines filters for listing users.
type ListUsersParams struct {
	Limit  int
	Skip   int
	Search string
}

// ListTransactionsParams defines filters for listing transactions.
type ListTransactionsParams struct {
	Limit     int
	Skip      int
	Search    string
	Status    string
	MinAmount *float64
	MaxAmount *float64
	SortBy    string
	Order     string
}

// NewRelationshipService constructs a RelationshipService.
func NewRelationshipService(repo GraphRepository) *RelationshipService {
	return &RelationshipService{
		repo:  repo,
		nowFn: time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *RelationshipService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// ListUsers retrieves users matching provided filters.
func (s *RelationshipService) ListUsers(ctx context.Context, params ListUsersParams) (domain.UserListResult, error) {
	limit, skip := normalizeWindow(params.Limit, params.Skip)
	return s.repo.ListUsers(ctx, repository.ListUsersOptions{
		Offset: skip,
		Limit:  limit,
		Search: sanitizeString(params.Search),
	})
}

// ListTransactions retrieves transactions matching filters.
func (s *RelationshipService) ListTransactions(ctx context.Context, params ListTransactionsParams) (domain.TransactionListResult, error) {
	limit, skip := normalizeWindow(params.Limit, params.Skip)

	minAmount := params.MinAmount
	maxAmount := params.MaxAmount
	if minAmount != nil && maxAmount != nil && *maxAmount < *minAmount {
		maxAmount = minAmount
	}

	return s.repo.ListTransactions(ctx, repository.ListTransactionsOptions{
		Offset:    skip,
		Limit:     limit,
		Search:    sanitizeString(params.Search),
		Status:    sanitizeString(params.Status),
		MinAmount: minAmount,
		MaxAmount: maxAmount,
		SortField: params.SortBy,
		SortOrder: params.Order,
	})
}

// UpsertUser normalizes a user payload and persists graph mutations.
func (s *RelationshipService) UpsertUser(ctx context.Context, input UserInput) error {
	if input.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	user := domain.User{
		ID:            input.ID,
		Name:          sanitizeString(input.Name),
		Email:         normalizeEmail(input.Email),
		Phone:         normalizePhone(input.Phone),
		Address:       sanitizeString(input.Address),
		PaymentMethod: sanitizeString(input.PaymentMethod),
	}
	return s.repo.UpsertUser(ctx, user)
}

// UpsertTransaction normalizes a transaction payload and persists graph mutations.
func (s *RelationshipService) UpsertTransaction(ctx context.Context, input TransactionInput) error {
	if input.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if input.SenderID == "" || input.ReceiverID == "" {
		return fmt.Errorf("sender and receiver IDs are required")
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = s.nowFn()
	}

	status := sanitizeString(input.Status)
	if status == "" {
		status = domain.StatusClear
	}

	tx := domain.Transaction{
		ID:         input.ID,
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Amount:     input.Amount,
		Currency:   sanitizeString(input.Currency),
		Status:     status,
		RiskScore:  clampFloat(input.RiskScore, 0, 1),
		IPAddress:  sanitizeString(input.IPAddress),
		DeviceID:   sanitizeString(input.DeviceID),
		Timestamp:  timestamp.UTC(),
	}
	return s.repo.UpsertTransaction(ctx, tx)
}

// GetUserConnections fetches everything directly linked to the provided user.
func (s *RelationshipService) GetUserConnections(ctx context.Context, userID string) (domain.UserConnections, error) {
	userID = sanitizeString(userID)
	if userID == "" {
		return domain.UserConnections{}, fmt.Errorf("user ID is required")
	}
	return s.repo.FetchUserConnections(ctx, userID)
}

// GetTransactionConnections fetches everything directly linked to the provided transaction.
func (s *RelationshipService) GetTransactionConnections(ctx context.Context, txID string) (domain.TransactionConnections, error) {
	txID = sanitizeString(txID)
	if txID == "" {
		return domain.TransactionConnections{}, fmt.Errorf("transaction ID is required")
	}
	return s.repo.FetchTransactionConnections(ctx, txID)
}

// GetStats returns aggregate graph counts.
func (s *RelationshipService) GetStats(ctx context.Context) (domain.GraphStats, error) {
	return s.repo.Stats(ctx)
}

// GetShortestPath returns the shortest connection chain between two users.
func (s *RelationshipService) GetShortestPath(ctx context.Context, sourceID, targetID string) (domain.PathResult, error) {
	sourceID = sanitizeString(sourceID)
	targetID = sanitizeString(targetID)
	if sourceID == "" || targetID == "" {
		return domain.PathResult{}, fmt.Errorf("user1 and user2 are required")
	}
	return s.repo.ShortestPath(ctx, sourceID, targetID)
}

func (s *RelationshipService) ExportUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ExportUsers(ctx)
}

func (s *RelationshipService) ExportTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.ExportTransactions(ctx)
}

func normalizeWindow(limit, skip int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}

func clampFloat(value, min, max float64) float64 {
	return math.Min(math.Max(value, min), max)
}
