package server

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meera/framl/internal/domain"
	"github.com/meera/framl/internal/graphview"
	"github.com/meera/framl/internal/repository"
	"github.com/meera/framl/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger   *slog.Logger
	service  *service.RelationshipService
	graphs   *service.GraphService
	validate *validator.Validate
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.RelationshipService, graphs *service.GraphService) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		service:  svc,
		graphs:   graphs,
		validate: validator.New(),
	}
}

func (h *APIHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.service.ListUsers(r.Context(), service.ListUsersParams{
		Limit:  parseInt(query.Get("limit"), 100),
		Skip:   parseInt(query.Get("skip"), 0),
		Search: query.Get("search"),
	})
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	if result.Items == nil {
		result.Items = []domain.User{}
	}
	respondJSON(w, http.StatusOK, listResponse[domain.User]{Data: result.Items, Total: result.Total})
}

func (h *APIHandlers) createOrUpdateUser(w http.ResponseWriter, r *http.Request) {
	var payload service.UserInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpsertUser(r.Context(), payload); err != nil {
		h.logger.Error("failed to upsert user", "error", err, "userId", payload.ID)
		writeError(w, http.StatusInternalServerError, "failed to persist user")
		return
	}

	respondJSON(w, http.StatusCreated, statusResponse{Status: "ok", ID: payload.ID})
}

func (h *APIHandlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := service.ListTransactionsParams{
		Limit:  parseInt(query.Get("limit"), 100),
		Skip:   parseInt(query.Get("skip"), 0),
		Search: query.Get("search"),
		Status: query.Get("status"),
		SortBy: query.Get("sort_by"),
		Order:  query.Get("order"),
	}

	if v := query.Get("min_amount"); v != "" {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_amount")
			return
		}
		params.MinAmount = &val
	}
	if v := query.Get("max_amount"); v != "" {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_amount")
			return
		}
		params.MaxAmount = &val
	}

	result, err := h.service.ListTransactions(r.Context(), params)
	if err != nil {
		h.logger.Error("failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	if result.Items == nil {
		result.Items = []domain.Transaction{}
	}
	respondJSON(w, http.StatusOK, listResponse[domain.Transaction]{Data: result.Items, Total: result.Total})
}

func (h *APIHandlers) createOrUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload service.TransactionInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpsertTransaction(r.Context(), payload); err != nil {
		h.logger.Error("failed to upsert transaction", "error", err, "transactionId", payload.ID)
		writeError(w, http.StatusInternalServerError, "failed to persist transaction")
		return
	}

	respondJSON(w, http.StatusCreated, statusResponse{Status: "ok", ID: payload.ID})
}

func (h *APIHandlers) userConnections(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	conns, err := h.service.GetUserConnections(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to fetch user connections", "error", err, "userId", userID)
		writeError(w, http.StatusInternalServerError, "failed to fetch user connections")
		return
	}

	respondJSON(w, http.StatusOK, userConnectionsResponse{
		UserID: conns.UserID,
		Connections: userConnectionGroups{
			SentTo:        emptyIfNil(conns.SentTo),
			SharedEmail:   emptyIfNil(conns.SharedEmail),
			SharedPhone:   emptyIfNil(conns.SharedPhone),
			SharedAddress: emptyIfNil(conns.SharedAddress),
			SharedPayment: emptyIfNil(conns.SharedPayment),
			Transactions:  emptyIfNil(conns.Transactions),
		},
	})
}

func (h *APIHandlers) transactionConnections(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "id")
	if txID == "" {
		writeError(w, http.StatusBadRequest, "transaction ID is required")
		return
	}

	conns, err := h.service.GetTransactionConnections(r.Context(), txID)
	if err != nil {
		h.logger.Error("failed to fetch transaction connections", "error", err, "transactionId", txID)
		writeError(w, http.StatusInternalServerError, "failed to fetch transaction connections")
		return
	}

	response := transactionConnectionsResponse{
		TransactionID: conns.TransactionID,
		Connections: transactionConnectionGroups{
			Users:              []linkedRecord[domain.User]{},
			LinkedTransactions: []linkedRecord[domain.Transaction]{},
		},
	}
	for _, link := range conns.Users {
		response.Connections.Users = append(response.Connections.Users, linkedRecord[domain.User]{
			Data:     link.User,
			LinkType: link.LinkType,
		})
	}
	for _, link := range conns.LinkedTransactions {
		response.Connections.LinkedTransactions = append(response.Connections.LinkedTransactions, linkedRecord[domain.Transaction]{
			Data:     link.Transaction,
			LinkType: link.LinkType,
		})
	}

	respondJSON(w, http.StatusOK, response)
}

func (h *APIHandlers) buildGraph(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := graphview.Filters{
		Users:        parseBool(query.Get("users"), true),
		Transactions: parseBool(query.Get("transactions"), true),
		Credit:       parseBool(query.Get("credit"), true),
		Debit:        parseBool(query.Get("debit"), true),
		Email:        parseBool(query.Get("email"), true),
		Phone:        parseBool(query.Get("phone"), true),
		Address:      parseBool(query.Get("address"), true),
		Payment:      parseBool(query.Get("payment"), true),
		IP:           parseBool(query.Get("ip"), true),
		Device:       parseBool(query.Get("device"), true),
	}

	graph, err := h.graphs.BuildGraph(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to build graph", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build graph")
		return
	}

	respondJSON(w, http.StatusOK, graph)
}

func (h *APIHandlers) buildUserGraph(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	focus := graphview.FocusFilter(r.URL.Query().Get("filter"))

	graph, err := h.graphs.BuildUserGraph(r.Context(), userID, focus)
	if err != nil {
		h.logger.Error("failed to build user graph", "error", err, "userId", userID)
		writeError(w, http.StatusInternalServerError, "failed to build user graph")
		return
	}

	respondJSON(w, http.StatusOK, graph)
}

func (h *APIHandlers) buildTransactionGraph(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "id")
	focus := graphview.FocusFilter(r.URL.Query().Get("filter"))

	graph, err := h.graphs.BuildTransactionGraph(r.Context(), txID, focus)
	if err != nil {
		h.logger.Error("failed to build transaction graph", "error", err, "transactionId", txID)
		writeError(w, http.StatusInternalServerError, "failed to build transaction graph")
		return
	}

	respondJSON(w, http.StatusOK, graph)
}

func (h *APIHandlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *APIHandlers) shortestPath(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	user1 := query.Get("user1")
	user2 := query.Get("user2")
	if user1 == "" || user2 == "" {
		writeError(w, http.StatusBadRequest, "user1 and user2 are required")
		return
	}

	path, err := h.service.GetShortestPath(r.Context(), user1, user2)
	if errors.Is(err, repository.ErrPathNotFound) {
		writeError(w, http.StatusNotFound, "no path found between users")
		return
	}
	if err != nil {
		h.logger.Error("failed to compute shortest path", "error", err, "user1", user1, "user2", user2)
		writeError(w, http.StatusInternalServerError, "failed to compute shortest path")
		return
	}

	respondJSON(w, http.StatusOK, path)
}

func (h *APIHandlers) exportTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.ExportTransactions(r.Context())
	if err != nil {
		h.logger.Error("failed to export transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}
	if len(txs) == 0 {
		writeError(w, http.StatusNotFound, "no transactions to export")
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

var transactionCSVHeader = []string{
	"id", "sender_id", "receiver_id", "amount", "currency",
	"timestamp", "status", "risk_score", "ip_address", "device_id",
}

func (h *APIHandlers) exportTransactionsCSV(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.ExportTransactions(r.Context())
	if err != nil {
		h.logger.Error("failed to export transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}
	if len(txs) == 0 {
		writeError(w, http.StatusNotFound, "no transactions to export")
		return
	}

	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			tx.ID,
			tx.SenderID,
			tx.ReceiverID,
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			tx.Currency,
			formatTime(tx.Timestamp),
			tx.Status,
			strconv.FormatFloat(tx.RiskScore, 'f', -1, 64),
			tx.IPAddress,
			tx.DeviceID,
		})
	}
	writeCSV(w, h.logger, "transactions.csv", transactionCSVHeader, rows)
}

var userCSVHeader = []string{"id", "name", "email", "phone", "address", "payment_method"}

func (h *APIHandlers) exportUsersCSV(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ExportUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to export users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export users")
		return
	}
	if len(users) == 0 {
		writeError(w, http.StatusNotFound, "no users to export")
		return
	}

	rows := make([][]string, 0, len(users))
	for _, user := range users {
		rows = append(rows, []string{
			user.ID,
			user.Name,
			user.Email,
			user.Phone,
			user.Address,
			user.PaymentMethod,
		})
	}
	writeCSV(w, h.logger, "users.csv", userCSVHeader, rows)
}

// --- Response DTOs ---

type listResponse[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}

type userConnectionsResponse struct {
	UserID      string               `json:"user_id"`
	Connections userConnectionGroups `json:"connections"`
}

type userConnectionGroups struct {
	SentTo        []domain.User        `json:"sent_to"`
	SharedEmail   []domain.User        `json:"shared_email"`
	SharedPhone   []domain.User        `json:"shared_phone"`
	SharedAddress []domain.User        `json:"shared_address"`
	SharedPayment []domain.User        `json:"shared_payment"`
	Transactions  []domain.Transaction `json:"transactions"`
}

type transactionConnectionsResponse struct {
	TransactionID string                      `json:"transaction_id"`
	Connections   transactionConnectionGroups `json:"connections"`
}

type transactionConnectionGroups struct {
	Users              []linkedRecord[domain.User]        `json:"users"`
	LinkedTransactions []linkedRecord[domain.Transaction] `json:"linked_transactions"`
}

type linkedRecord[T any] struct {
	Data     T      `json:"data"`
	LinkType string `json:"link_type"`
}

type statusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// --- Helpers ---

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func parseBool(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}
	if v, err := strconv.ParseBool(value); err == nil {
		return v
	}
	return fallback
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func writeCSV(w http.ResponseWriter, logger *slog.Logger, filename string, header []string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		logger.Error("failed to write csv header", "error", err)
		return
	}
	if err := writer.WriteAll(rows); err != nil {
		logger.Error("failed to write csv rows", "error", err)
	}
}
