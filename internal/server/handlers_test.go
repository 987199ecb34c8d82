package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meera/framl/internal/domain"
	"github.com/meera/framl/internal/graphview"
	"github.com/meera/framl/internal/repository"
	"github.com/meera/framl/internal/service"
)

type apiStubRepo struct {
	upsertedUsers []domain.User
	upsertedTxs   []domain.Transaction
	usersList     domain.UserListResult
	txList        domain.TransactionListResult
	userConns     domain.UserConnections
	txConns       domain.TransactionConnections
	stats         domain.GraphStats
	path          domain.PathResult
	pathErr       error
	exportedUsers []domain.User
	exportedTxs   []domain.Transaction
	snapshotUsers []domain.User
	snapshotTxs   []domain.Transaction
}

func (a *apiStubRepo) UpsertUser(_ context.Context, user domain.User) error {
	a.upsertedUsers = append(a.upsertedUsers, user)
	return nil
}

func (a *apiStubRepo) UpsertTransaction(_ context.Context, tx domain.Transaction) error {
	a.upsertedTxs = append(a.upsertedTxs, tx)
	return nil
}

func (a *apiStubRepo) ListUsers(context.Context, repository.ListUsersOptions) (domain.UserListResult, error) {
	return a.usersList, nil
}

func (a *apiStubRepo) ListTransactions(context.Context, repository.ListTransactionsOptions) (domain.TransactionListResult, error) {
	return a.txList, nil
}

func (a *apiStubRepo) FetchUserConnections(_ context.Context, userID string) (domain.UserConnections, error) {
	conns := a.userConns
	conns.UserID = userID
	return conns, nil
}

func (a *apiStubRepo) FetchTransactionConnections(_ context.Context, txID string) (domain.TransactionConnections, error) {
	conns := a.txConns
	conns.TransactionID = txID
	return conns, nil
}

func (a *apiStubRepo) Stats(context.Context) (domain.GraphStats, error) {
	return a.stats, nil
}

func (a *apiStubRepo) ShortestPath(context.Context, string, string) (domain.PathResult, error) {
	if a.pathErr != nil {
		return domain.PathResult{}, a.pathErr
	}
	return a.path, nil
}

func (a *apiStubRepo) ExportUsers(context.Context) ([]domain.User, error) {
	return a.exportedUsers, nil
}

func (a *apiStubRepo) ExportTransactions(context.Context) ([]domain.Transaction, error) {
	return a.exportedTxs, nil
}

func (a *apiStubRepo) FetchUsers(context.Context, int) ([]domain.User, error) {
	return a.snapshotUsers, nil
}

func (a *apiStubRepo) FetchTransactions(context.Context, int) ([]domain.Transaction, error) {
	return a.snapshotTxs, nil
}

func newTestRouter(repo *apiStubRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewRelationshipService(repo)
	graphs := service.NewGraphService(repo, nil, nil, logger, service.GraphServiceOptions{})
	handlers := NewAPIHandlers(logger, svc, graphs)
	return NewRouter(logger, RouterDependencies{API: handlers})
}

func doRequest(t *testing.T, handler http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestListUsersEnvelope(t *testing.T) {
	repo := &apiStubRepo{
		usersList: domain.UserListResult{
			Items: []domain.User{{ID: "U1", Name: "Jane Doe", Email: "jane@example.com"}},
			Total: 41,
		},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/users?search=jane&limit=10", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload struct {
		Data  []domain.User `json:"data"`
		Total int64         `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Total != 41 {
		t.Errorf("expected total 41, got %d", payload.Total)
	}
	if len(payload.Data) != 1 || payload.Data[0].ID != "U1" {
		t.Errorf("unexpected data: %+v", payload.Data)
	}
}

func TestCreateUserValidation(t *testing.T) {
	repo := &apiStubRepo{}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodPost, "/users", []byte(`{"name":"no id"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/users", []byte(`{"id":"U1","email":"not-an-email"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid email, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/users", []byte(`{"id":"U1","name":"Jane","email":"jane@example.com"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.upsertedUsers) != 1 {
		t.Fatalf("expected 1 upserted user, got %d", len(repo.upsertedUsers))
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	repo := &apiStubRepo{}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodPost, "/transactions", []byte(`{"id":"T1","sender_id":"U1"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing receiver, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/transactions",
		[]byte(`{"id":"T1","sender_id":"U1","receiver_id":"U2","amount":2500,"currency":"INR","status":"review","risk_score":0.5}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.upsertedTxs) != 1 {
		t.Fatalf("expected 1 upserted transaction, got %d", len(repo.upsertedTxs))
	}
}

func TestUserConnectionsShape(t *testing.T) {
	repo := &apiStubRepo{
		userConns: domain.UserConnections{
			SentTo:      []domain.User{{ID: "U2"}},
			SharedEmail: []domain.User{{ID: "U3"}},
		},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/relationships/user/U1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(payload["user_id"]) != `"U1"` {
		t.Errorf("expected user_id U1, got %s", payload["user_id"])
	}

	var conns map[string]json.RawMessage
	if err := json.Unmarshal(payload["connections"], &conns); err != nil {
		t.Fatalf("failed to decode connections: %v", err)
	}
	for _, group := range []string{"sent_to", "shared_email", "shared_phone", "shared_address", "shared_payment", "transactions"} {
		if _, ok := conns[group]; !ok {
			t.Errorf("missing connection group %q", group)
		}
	}
	// Empty groups serialize as arrays, not null.
	if string(conns["shared_phone"]) != "[]" {
		t.Errorf("expected empty array for shared_phone, got %s", conns["shared_phone"])
	}
}

func TestTransactionConnectionsShape(t *testing.T) {
	repo := &apiStubRepo{
		txConns: domain.TransactionConnections{
			Users:              []domain.TransactionUserLink{{User: domain.User{ID: "U1"}, LinkType: "INITIATED"}},
			LinkedTransactions: []domain.LinkedTransaction{{Transaction: domain.Transaction{ID: "T2"}, LinkType: "SAME_IP"}},
		},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/relationships/transaction/T1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload transactionConnectionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.TransactionID != "T1" {
		t.Errorf("expected transaction_id T1, got %s", payload.TransactionID)
	}
	if len(payload.Connections.Users) != 1 || payload.Connections.Users[0].LinkType != "INITIATED" {
		t.Errorf("unexpected users: %+v", payload.Connections.Users)
	}
	if len(payload.Connections.LinkedTransactions) != 1 || payload.Connections.LinkedTransactions[0].LinkType != "SAME_IP" {
		t.Errorf("unexpected linked transactions: %+v", payload.Connections.LinkedTransactions)
	}
}

func TestBuildGraphEndpoint(t *testing.T) {
	repo := &apiStubRepo{
		snapshotUsers: []domain.User{
			{ID: "U1", Email: "a@x.com"},
			{ID: "U2", Email: "a@x.com"},
		},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/graph", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload graphview.Graph
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Nodes) != 2 || len(payload.Edges) != 1 {
		t.Errorf("unexpected graph: %d nodes, %d edges", len(payload.Nodes), len(payload.Edges))
	}
}

func TestBuildGraphFilterToggle(t *testing.T) {
	repo := &apiStubRepo{
		snapshotUsers: []domain.User{
			{ID: "U1", Email: "a@x.com"},
			{ID: "U2", Email: "a@x.com"},
		},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/graph?email=false", nil)

	var payload graphview.Graph
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Edges) != 0 {
		t.Errorf("expected no edges with email filter off, got %d", len(payload.Edges))
	}
}

func TestBuildUserGraphStatusText(t *testing.T) {
	repo := &apiStubRepo{}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/graph/user/U9?filter=email", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload graphview.FocusedGraph
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.StatusText != graphview.StatusNoConnections {
		t.Errorf("expected status text %q, got %q", graphview.StatusNoConnections, payload.StatusText)
	}
}

func TestStatsEndpoint(t *testing.T) {
	repo := &apiStubRepo{
		stats: domain.GraphStats{Users: 100, Transactions: 400, Flagged: 30, Review: 70, Clear: 300},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/analytics/stats", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload domain.GraphStats
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload != repo.stats {
		t.Errorf("stats mismatch: %+v", payload)
	}
}

func TestShortestPathEndpoint(t *testing.T) {
	repo := &apiStubRepo{
		path: domain.PathResult{Path: []string{"U1", "T5", "U2"}, Hops: 2},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/analytics/shortest-path?user1=U1&user2=U2", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload domain.PathResult
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Hops != 2 || len(payload.Path) != 3 {
		t.Errorf("unexpected path result: %+v", payload)
	}
}

func TestShortestPathNotFound(t *testing.T) {
	repo := &apiStubRepo{pathErr: repository.ErrPathNotFound}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/analytics/shortest-path?user1=U1&user2=U2", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestShortestPathRequiresBothUsers(t *testing.T) {
	router := newTestRouter(&apiStubRepo{})

	rec := doRequest(t, router, http.MethodGet, "/analytics/shortest-path?user1=U1", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestExportTransactionsEmpty(t *testing.T) {
	router := newTestRouter(&apiStubRepo{})

	rec := doRequest(t, router, http.MethodGet, "/export/transactions", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for empty export, got %d", rec.Code)
	}
}

func TestExportTransactionsCSV(t *testing.T) {
	repo := &apiStubRepo{
		exportedTxs: []domain.Transaction{
			{ID: "T1", SenderID: "U1", ReceiverID: "U2", Amount: 2500, Currency: "INR", Status: "clear", RiskScore: 0.1, IPAddress: "10.0.0.1", DeviceID: "dev-a"},
		},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/export/transactions/csv", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv content type, got %s", ct)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and one row, got %d records", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(transactionCSVHeader, ",") {
		t.Errorf("header mismatch: %v", records[0])
	}
	if records[1][0] != "T1" || records[1][3] != "2500" {
		t.Errorf("row mismatch: %v", records[1])
	}
}

func TestExportUsersCSV(t *testing.T) {
	repo := &apiStubRepo{
		exportedUsers: []domain.User{
			{ID: "U1", Name: "Jane Doe", Email: "jane@example.com", Phone: "+919812345678", Address: "12 MG Road", PaymentMethod: "card_4111"},
		},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/export/users/csv", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if strings.Join(records[0], ",") != strings.Join(userCSVHeader, ",") {
		t.Errorf("header mismatch: %v", records[0])
	}
	if records[1][1] != "Jane Doe" {
		t.Errorf("row mismatch: %v", records[1])
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(&apiStubRepo{})

	rec := doRequest(t, router, http.MethodGet, "/healthz", nil)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "fixed-id" {
		t.Errorf("expected inbound request ID echoed, got %s", rec.Header().Get("X-Request-ID"))
	}
}
