package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meera/framl/internal/domain"
	"github.com/meera/framl/internal/repository"
)

type stubRepository struct {
	users            []domain.User
	transactions     []domain.Transaction
	userErr          error
	transactionErr   error
	usersList        domain.UserListResult
	transactionsList domain.TransactionListResult
	lastUserOpts     repository.ListUsersOptions
	lastTxOpts       repository.ListTransactionsOptions
	userConnections  domain.UserConnections
	txConnections    domain.TransactionConnections
	stats            domain.GraphStats
	path             domain.PathResult
	pathErr          error
	exportedUsers    []domain.User
	exportedTxs      []domain.Transaction
}

func (s *stubRepository) UpsertUser(_ context.Context, user domain.User) error {
	if s.userErr != nil {
		return s.userErr
	}
	s.users = append(s.users, user)
	return nil
}

func (s *stubRepository) UpsertTransaction(_ context.Context, tx domain.Transaction) error {
	if s.transactionErr != nil {
		return s.transactionErr
	}
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *stubRepository) ListUsers(_ context.Context, opts repository.ListUsersOptions) (domain.UserListResult, error) {
	s.lastUserOpts = opts
	return s.usersList, nil
}

func (s *stubRepository) ListTransactions(_ context.Context, opts repository.ListTransactionsOptions) (domain.TransactionListResult, error) {
	s.lastTxOpts = opts
	return s.transactionsList, nil
}

func (s *stubRepository) FetchUserConnections(_ context.Context, userID string) (domain.UserConnections, error) {
	conns := s.userConnections
	conns.UserID = userID
	return conns, nil
}

func (s *stubRepository) FetchTransactionConnections(_ context.Context, txID string) (domain.TransactionConnections, error) {
	conns := s.txConnections
	conns.TransactionID = txID
	return conns, nil
}

func (s *stubRepository) Stats(context.Context) (domain.GraphStats, error) {
	return s.stats, nil
}

func (s *stubRepository) ShortestPath(_ context.Context, _, _ string) (domain.PathResult, error) {
	if s.pathErr != nil {
		return domain.PathResult{}, s.pathErr
	}
	return s.path, nil
}

func (s *stubRepository) ExportUsers(context.Context) ([]domain.User, error) {
	return s.exportedUsers, nil
}

func (s *stubRepository) ExportTransactions(context.Context) ([]domain.Transaction, error) {
	return s.exportedTxs, nil
}

func TestRelationshipService_UpsertUserNormalizes(t *testing.T) {
	repo := &stubRepository{}
	svc := NewRelationshipService(repo)

	input := UserInput{
		ID:            "U1",
		Name:          "  Jane   Doe ",
		Email:         "Jane.Doe@Example.com ",
		Phone:         " +91 (981) 234-5678 ",
		Address:       "  12 MG Road,  Bengaluru ",
		PaymentMethod: "card_4111",
	}

	if err := svc.UpsertUser(context.Background(), input); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(repo.users) != 1 {
		t.Fatalf("expected 1 upserted user, got %d", len(repo.users))
	}
	user := repo.users[0]
	if user.Name != "Jane Doe" {
		t.Errorf("name not sanitized: %q", user.Name)
	}
	if user.Email != "jane.doe@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Phone != "+919812345678" {
		t.Errorf("phone not normalized: %q", user.Phone)
	}
	if user.Address != "12 MG Road, Bengaluru" {
		t.Errorf("address not sanitized: %q", user.Address)
	}
}

func TestRelationshipService_UpsertUserRequiresID(t *testing.T) {
	svc := NewRelationshipService(&stubRepository{})
	if err := svc.UpsertUser(context.Background(), UserInput{Name: "ghost"}); err == nil {
		t.Fatal("expected error for missing user ID")
	}
}

func TestRelationshipService_UpsertTransactionDefaults(t *testing.T) {
	repo := &stubRepository{}
	svc := NewRelationshipService(repo)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	input := TransactionInput{
		ID:         "T1",
		SenderID:   "U1",
		ReceiverID: "U2",
		Amount:     2500,
		Currency:   "INR",
		RiskScore:  1.7,
	}

	if err := svc.UpsertTransaction(context.Background(), input); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(repo.transactions) != 1 {
		t.Fatalf("expected 1 upserted transaction, got %d", len(repo.transactions))
	}
	tx := repo.transactions[0]
	if !tx.Timestamp.Equal(now) {
		t.Errorf("expected clock timestamp, got %v", tx.Timestamp)
	}
	if tx.Status != domain.StatusClear {
		t.Errorf("expected default status clear, got %q", tx.Status)
	}
	if tx.RiskScore != 1.0 {
		t.Errorf("expected risk score clamped to 1, got %f", tx.RiskScore)
	}
}

func TestRelationshipService_UpsertTransactionRequiresParties(t *testing.T) {
	svc := NewRelationshipService(&stubRepository{})

	if err := svc.UpsertTransaction(context.Background(), TransactionInput{ID: "T1", SenderID: "U1"}); err == nil {
		t.Fatal("expected error for missing receiver")
	}
	if err := svc.UpsertTransaction(context.Background(), TransactionInput{SenderID: "U1", ReceiverID: "U2"}); err == nil {
		t.Fatal("expected error for missing transaction ID")
	}
}

func TestRelationshipService_ListUsersClampsWindow(t *testing.T) {
	repo := &stubRepository{usersList: domain.UserListResult{Total: 3}}
	svc := NewRelationshipService(repo)

	result, err := svc.ListUsers(context.Background(), ListUsersParams{Limit: 9000, Skip: -1, Search: "  jane "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Total != 3 {
		t.Errorf("total mismatch: got %d", result.Total)
	}

	if repo.lastUserOpts.Limit != 500 {
		t.Errorf("expected limit clamped to 500, got %d", repo.lastUserOpts.Limit)
	}
	if repo.lastUserOpts.Offset != 0 {
		t.Errorf("expected offset reset to 0, got %d", repo.lastUserOpts.Offset)
	}
	if repo.lastUserOpts.Search != "jane" {
		t.Errorf("expected sanitized search, got %q", repo.lastUserOpts.Search)
	}
}

func TestRelationshipService_ListTransactionsAmountBounds(t *testing.T) {
	repo := &stubRepository{}
	svc := NewRelationshipService(repo)

	minAmount := 5000.0
	maxAmount := 100.0
	_, err := svc.ListTransactions(context.Background(), ListTransactionsParams{
		MinAmount: &minAmount,
		MaxAmount: &maxAmount,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if repo.lastTxOpts.MaxAmount == nil || *repo.lastTxOpts.MaxAmount != minAmount {
		t.Errorf("expected max raised to min, got %v", repo.lastTxOpts.MaxAmount)
	}
}

func TestRelationshipService_GetShortestPathValidation(t *testing.T) {
	svc := NewRelationshipService(&stubRepository{})

	if _, err := svc.GetShortestPath(context.Background(), "U1", "  "); err == nil {
		t.Fatal("expected error for blank target")
	}
}

func TestRelationshipService_GetShortestPathPropagatesNotFound(t *testing.T) {
	repo := &stubRepository{pathErr: repository.ErrPathNotFound}
	svc := NewRelationshipService(repo)

	if _, err := svc.GetShortestPath(context.Background(), "U1", "U2"); !errors.Is(err, repository.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
}

func TestRelationshipService_GetUserConnections(t *testing.T) {
	repo := &stubRepository{userConnections: domain.UserConnections{SentTo: []domain.User{{ID: "U2"}}}}
	svc := NewRelationshipService(repo)

	conns, err := svc.GetUserConnections(context.Background(), " U1 ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if conns.UserID != "U1" {
		t.Errorf("expected trimmed user id, got %q", conns.UserID)
	}
	if len(conns.SentTo) != 1 {
		t.Errorf("sent_to mismatch: %+v", conns.SentTo)
	}
}
