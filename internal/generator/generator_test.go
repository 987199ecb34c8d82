package generator

import (
	"context"
	"math"
	"testing"

	"github.com/meera/framl/internal/domain"
)

func TestGenerateCountsAndDeterminism(t *testing.T) {
	cfg := Config{NumUsers: 50, NumTransactions: 200, Seed: 7}

	first, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(first.Users) != 50 || len(first.Transactions) != 200 {
		t.Fatalf("unexpected dataset sizes: %d users, %d transactions", len(first.Users), len(first.Transactions))
	}
	if first.Users[10] != second.Users[10] || first.Transactions[42] != second.Transactions[42] {
		t.Error("expected identical output for identical seeds")
	}
}

func TestGenerateTransactionInvariants(t *testing.T) {
	dataset, err := New(Config{NumUsers: 30, NumTransactions: 300, Seed: 11}).Generate(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, tx := range dataset.Transactions {
		if tx.SenderID == tx.ReceiverID {
			t.Fatalf("transaction %s sends to itself", tx.ID)
		}
		if tx.Amount < 500 || tx.Amount > 5_000_000 {
			t.Fatalf("transaction %s amount %f out of range", tx.ID, tx.Amount)
		}
		if tx.RiskScore < 0 || tx.RiskScore > 1 {
			t.Fatalf("transaction %s risk %f out of range", tx.ID, tx.RiskScore)
		}
		switch {
		case tx.RiskScore > 0.7 && tx.Status != domain.StatusFlagged:
			t.Fatalf("transaction %s risk %f should be flagged, got %s", tx.ID, tx.RiskScore, tx.Status)
		case tx.RiskScore > 0.4 && tx.RiskScore <= 0.7 && tx.Status != domain.StatusReview:
			t.Fatalf("transaction %s risk %f should be review, got %s", tx.ID, tx.RiskScore, tx.Status)
		case tx.RiskScore <= 0.4 && tx.Status != domain.StatusClear:
			t.Fatalf("transaction %s risk %f should be clear, got %s", tx.ID, tx.RiskScore, tx.Status)
		}
	}
}

func TestRiskScoreWeights(t *testing.T) {
	if got := riskScore(1000, false, false); got != 0.05 {
		t.Errorf("baseline risk: got %f", got)
	}
	if got := riskScore(2_000_000, true, true); math.Abs(got-0.95) > 1e-9 {
		t.Errorf("shared context with large amount: got %f", got)
	}
	if got := riskScore(2_000_000, false, true); math.Abs(got-0.55) > 1e-9 {
		t.Errorf("shared device with large amount: got %f", got)
	}
}
