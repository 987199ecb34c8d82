package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meera/framl/internal/domain"
	"github.com/meera/framl/internal/graph"
)

// ErrPathNotFound indicates no connection chain exists between two users.
var ErrPathNotFound = errors.New("no path found between users")

// ListUsersOptions defines filters and pagination for user listing.
type ListUsersOptions struct {
	Offset int
	Limit  int
	Search string
}

// ListTransactionsOptions defines filters and pagination for transaction listing.
type ListTransactionsOptions struct {
	Offset    int
	Limit     int
	Search    string
	Status    string
	MinAmount *float64
	MaxAmount *float64
	SortField string
	SortOrder string
}

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// UpsertUser ensures a user node exists with the latest properties and refreshes
// its shared-attribute relationships.
func (r *Repository) UpsertUser(ctx context.Context, user domain.User) error {
	if user.ID == "" {
		return errors.New("user id is required")
	}

	params := map[string]any{
		"id":             user.ID,
		"name":           user.Name,
		"email":          user.Email,
		"phone":          user.Phone,
		"address":        user.Address,
		"payment_method": user.PaymentMethod,
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertUserCypher, params); err != nil {
		return fmt.Errorf("upsert user %s: %w", user.ID, err)
	}

	for _, link := range sharedAttributeLinks {
		query := fmt.Sprintf(linkSharedAttributeCypherTemplate, link.property, link.relType)
		if _, err := r.client.ExecuteWrite(ctx, query, map[string]any{"id": user.ID}); err != nil {
			return fmt.Errorf("link %s for user %s: %w", link.relType, user.ID, err)
		}
	}
	return nil
}

// UpsertTransaction ensures a transaction node exists and refreshes its
// INITIATED, RECEIVED, SENT, and shared-context relationships.
func (r *Repository) UpsertTransaction(ctx context.Context, tx domain.Transaction) error {
	if tx.ID == "" {
		return errors.New("transaction id is required")
	}

	params := map[string]any{
		"id":          tx.ID,
		"sender_id":   tx.SenderID,
		"receiver_id": tx.ReceiverID,
		"amount":      tx.Amount,
		"currency":    tx.Currency,
		"status":      tx.Status,
		"risk_score":  tx.RiskScore,
		"ip_address":  tx.IPAddress,
		"device_id":   tx.DeviceID,
		"timestamp":   formatTime(tx.Timestamp),
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertTransactionCypher, params); err != nil {
		return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
	}

	linkQueries := []string{
		linkInitiatedCypher,
		linkReceivedCypher,
		linkSentCypher,
		linkSameIPCypher,
		linkSameDeviceCypher,
	}
	for _, query := range linkQueries {
		if _, err := r.client.ExecuteWrite(ctx, query, map[string]any{"id": tx.ID}); err != nil {
			return fmt.Errorf("link transaction %s: %w", tx.ID, err)
		}
	}
	return nil
}

// ListUsers returns paginated users matching the provided filters.
func (r *Repository) ListUsers(ctx context.Context, opts ListUsersOptions) (domain.UserListResult, error) {
	limit, offset := normalizeWindow(opts.Limit, opts.Offset)
	params := map[string]any{
		"search": strings.ToLower(strings.TrimSpace(opts.Search)),
		"skip":   offset,
		"limit":  limit,
	}

	query := fmt.Sprintf(listUsersCypherTemplate, userFilterClause)
	res, err := r.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return domain.UserListResult{}, fmt.Errorf("list users query: %w", err)
	}

	users := make([]domain.User, 0, len(res.Records))
	for _, record := range res.Records {
		users = append(users, userFromRecord(record))
	}

	countQuery := fmt.Sprintf(countUsersCypherTemplate, userFilterClause)
	total, err := r.count(ctx, countQuery, params)
	if err != nil {
		return domain.UserListResult{}, fmt.Errorf("count users query: %w", err)
	}

	return domain.UserListResult{Items: users, Total: total}, nil
}

// ListTransactions returns paginated transactions matching the provided filters.
func (r *Repository) ListTransactions(ctx context.Context, opts ListTransactionsOptions) (domain.TransactionListResult, error) {
	limit, offset := normalizeWindow(opts.Limit, opts.Offset)

	minAmount := -1.0
	if opts.MinAmount != nil {
		minAmount = *opts.MinAmount
	}
	maxAmount := -1.0
	if opts.MaxAmount != nil {
		maxAmount = *opts.MaxAmount
	}

	params := map[string]any{
		"search":    strings.ToLower(strings.TrimSpace(opts.Search)),
		"status":    strings.ToLower(strings.TrimSpace(opts.Status)),
		"minAmount": minAmount,
		"maxAmount": maxAmount,
		"skip":      offset,
		"limit":     limit,
	}

	query := fmt.Sprintf(listTransactionsCypherTemplate, transactionFilterClause, transactionOrderClause(opts.SortField, opts.SortOrder))
	res, err := r.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return domain.TransactionListResult{}, fmt.Errorf("list transactions query: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(res.Records))
	for _, record := range res.Records {
		txs = append(txs, transactionFromRecord(record))
	}

	countQuery := fmt.Sprintf(countTransactionsCypherTemplate, transactionFilterClause)
	total, err := r.count(ctx, countQuery, params)
	if err != nil {
		return domain.TransactionListResult{}, fmt.Errorf("count transactions query: %w", err)
	}

	return domain.TransactionListResult{Items: txs, Total: total}, nil
}

// FetchUserConnections returns everything directly connected to a user:
// transfer counterparties, users sharing attributes, and their transactions.
func (r *Repository) FetchUserConnections(ctx context.Context, userID string) (domain.UserConnections, error) {
	if userID == "" {
		return domain.UserConnections{}, errors.New("user id is required")
	}

	res, err := r.client.ExecuteRead(ctx, userConnectionsCypher, map[string]any{"id": userID})
	if err != nil {
		return domain.UserConnections{}, fmt.Errorf("fetch user connections: %w", err)
	}

	connections := domain.UserConnections{UserID: userID}
	seen := make(map[string]struct{})
	for _, record := range res.Records {
		relType := toString(record["relType"])
		props, ok := record["node"].(map[string]any)
		if !ok {
			continue
		}
		key := relType + "_" + toString(props["id"])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		switch relType {
		case domain.RelSent:
			connections.SentTo = append(connections.SentTo, userFromRecord(props))
		case domain.RelSharedEmail:
			connections.SharedEmail = append(connections.SharedEmail, userFromRecord(props))
		case domain.RelSharedPhone:
			connections.SharedPhone = append(connections.SharedPhone, userFromRecord(props))
		case domain.RelSharedAddress:
			connections.SharedAddress = append(connections.SharedAddress, userFromRecord(props))
		case domain.RelSharedPayment:
			connections.SharedPayment = append(connections.SharedPayment, userFromRecord(props))
		case domain.RelInitiated, domain.RelReceived:
			connections.Transactions = append(connections.Transactions, transactionFromRecord(props))
		}
	}
	return connections, nil
}

// FetchTransactionConnections returns users participating in a transaction and
// transactions linked through shared context.
func (r *Repository) FetchTransactionConnections(ctx context.Context, txID string) (domain.TransactionConnections, error) {
	if txID == "" {
		return domain.TransactionConnections{}, errors.New("transaction id is required")
	}

	res, err := r.client.ExecuteRead(ctx, transactionConnectionsCypher, map[string]any{"id": txID})
	if err != nil {
		return domain.TransactionConnections{}, fmt.Errorf("fetch transaction connections: %w", err)
	}

	connections := domain.TransactionConnections{TransactionID: txID}
	seen := make(map[string]struct{})
	for _, record := range res.Records {
		relType := toString(record["relType"])
		props, ok := record["node"].(map[string]any)
		if !ok {
			continue
		}
		key := relType + "_" + toString(props["id"])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if hasLabel(record["nodeLabels"], "User") {
			connections.Users = append(connections.Users, domain.TransactionUserLink{
				User:     userFromRecord(props),
				LinkType: relType,
			})
			continue
		}
		connections.LinkedTransactions = append(connections.LinkedTransactions, domain.LinkedTransaction{
			Transaction: transactionFromRecord(props),
			LinkType:    relType,
		})
	}
	return connections, nil
}

// Stats returns the aggregate counts shown on the dashboard.
func (r *Repository) Stats(ctx context.Context) (domain.GraphStats, error) {
	stats := domain.GraphStats{}
	counts := []struct {
		query  string
		target *int64
	}{
		{countAllUsersCypher, &stats.Users},
		{countAllTransactionsCypher, &stats.Transactions},
		{countFlaggedCypher, &stats.Flagged},
		{countReviewCypher, &stats.Review},
		{countClearCypher, &stats.Clear},
	}
	for _, c := range counts {
		total, err := r.count(ctx, c.query, nil)
		if err != nil {
			return domain.GraphStats{}, fmt.Errorf("stats query: %w", err)
		}
		*c.target = total
	}
	return stats, nil
}

// ShortestPath finds the shortest chain of connections between two users.
// Returns ErrPathNotFound when the users are not connected at all.
func (r *Repository) ShortestPath(ctx context.Context, sourceID, targetID string) (domain.PathResult, error) {
	if sourceID == "" || targetID == "" {
		return domain.PathResult{}, errors.New("source and target user ids are required")
	}
	if sourceID == targetID {
		return domain.PathResult{Path: []string{sourceID}, Hops: 0}, nil
	}

	res, err := r.client.ExecuteRead(ctx, shortestPathCypher, map[string]any{
		"sourceId": sourceID,
		"targetId": targetID,
	})
	if err != nil {
		return domain.PathResult{}, fmt.Errorf("shortest path query: %w", err)
	}
	if len(res.Records) == 0 {
		return domain.PathResult{}, ErrPathNotFound
	}

	record := res.Records[0]
	result := domain.PathResult{}
	if ids, ok := record["pathIds"].([]any); ok {
		for _, id := range ids {
			if s := toString(id); s != "" {
				result.Path = append(result.Path, s)
			}
		}
	}
	result.Hops = int(toInt64(record["hops"]))
	return result, nil
}

// FetchUsers returns up to limit users for graph snapshot assembly.
func (r *Repository) FetchUsers(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 500
	}
	res, err := r.client.ExecuteRead(ctx, fetchUsersCypher, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("fetch users query: %w", err)
	}
	users := make([]domain.User, 0, len(res.Records))
	for _, record := range res.Records {
		users = append(users, userFromRecord(record))
	}
	return users, nil
}

// FetchTransactions returns up to limit transactions, newest first, for graph
// snapshot assembly.
func (r *Repository) FetchTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 500
	}
	res, err := r.client.ExecuteRead(ctx, fetchTransactionsCypher, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("fetch transactions query: %w", err)
	}
	txs := make([]domain.Transaction, 0, len(res.Records))
	for _, record := range res.Records {
		txs = append(txs, transactionFromRecord(record))
	}
	return txs, nil
}

// ExportUsers returns all users for export purposes.
func (r *Repository) ExportUsers(ctx context.Context) ([]domain.User, error) {
	res, err := r.client.ExecuteRead(ctx, exportUsersCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("export users query: %w", err)
	}
	users := make([]domain.User, 0, len(res.Records))
	for _, record := range res.Records {
		users = append(users, userFromRecord(record))
	}
	return users, nil
}

// ExportTransactions returns all transactions for export purposes.
func (r *Repository) ExportTransactions(ctx context.Context) ([]domain.Transaction, error) {
	res, err := r.client.ExecuteRead(ctx, exportTransactionsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("export transactions query: %w", err)
	}
	txs := make([]domain.Transaction, 0, len(res.Records))
	for _, record := range res.Records {
		txs = append(txs, transactionFromRecord(record))
	}
	return txs, nil
}

func (r *Repository) count(ctx context.Context, query string, params map[string]any) (int64, error) {
	res, err := r.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	return toInt64(res.Records[0]["total"]), nil
}

func normalizeWindow(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func userFromRecord(record map[string]any) domain.User {
	return domain.User{
		ID:            toString(record["id"]),
		Name:          toString(record["name"]),
		Email:         toString(record["email"]),
		Phone:         toString(record["phone"]),
		Address:       toString(record["address"]),
		PaymentMethod: toString(record["payment_method"]),
	}
}

func transactionFromRecord(record map[string]any) domain.Transaction {
	tx := domain.Transaction{
		ID:         toString(record["id"]),
		SenderID:   toString(record["sender_id"]),
		ReceiverID: toString(record["receiver_id"]),
		Amount:     toFloat64(record["amount"]),
		Currency:   toString(record["currency"]),
		Status:     toString(record["status"]),
		RiskScore:  toFloat64(record["risk_score"]),
		IPAddress:  toString(record["ip_address"]),
		DeviceID:   toString(record["device_id"]),
	}
	if ts := toTimePtr(record["timestamp"]); ts != nil {
		tx.Timestamp = *ts
	}
	return tx
}

func hasLabel(val any, label string) bool {
	labels, ok := val.([]any)
	if !ok {
		return false
	}
	for _, l := range labels {
		if toString(l) == label {
			return true
		}
	}
	return false
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
	}
	return nil
}

var sharedAttributeLinks = []struct {
	property string
	relType  string
}{
	{"email", domain.RelSharedEmail},
	{"phone", domain.RelSharedPhone},
	{"address", domain.RelSharedAddress},
	{"payment_method", domain.RelSharedPayment},
}

const upsertUserCypher = `
MERGE (u:User {id: $id})
SET u.name = $name,
    u.email = $email,
    u.phone = $phone,
    u.address = $address,
    u.payment_method = $payment_method
RETURN u.id AS id
`

// %[1]s is the shared property name, %[2]s the relationship type. The
// a.id < b.id ordering keeps exactly one edge per pair.
const linkSharedAttributeCypherTemplate = `
MATCH (u:User {id: $id})
MATCH (o:User)
WHERE o.id <> u.id AND coalesce(u.%[1]s, "") <> "" AND o.%[1]s = u.%[1]s
WITH CASE WHEN u.id < o.id THEN u ELSE o END AS a,
     CASE WHEN u.id < o.id THEN o ELSE u END AS b
MERGE (a)-[:%[2]s]->(b)
`

const upsertTransactionCypher = `
MERGE (t:Transaction {id: $id})
SET t.sender_id = $sender_id,
    t.receiver_id = $receiver_id,
    t.amount = $amount,
    t.currency = $currency,
    t.status = $status,
    t.risk_score = $risk_score,
    t.ip_address = $ip_address,
    t.device_id = $device_id,
    t.timestamp = $timestamp
RETURN t.id AS id
`

const linkInitiatedCypher = `
MATCH (t:Transaction {id: $id})
MATCH (u:User {id: t.sender_id})
MERGE (u)-[:INITIATED]->(t)
`

const linkReceivedCypher = `
MATCH (t:Transaction {id: $id})
MATCH (u:User {id: t.receiver_id})
MERGE (u)-[:RECEIVED]->(t)
`

const linkSentCypher = `
MATCH (t:Transaction {id: $id})
MATCH (s:User {id: t.sender_id})
MATCH (r:User {id: t.receiver_id})
MERGE (s)-[:SENT {tx_id: t.id}]->(r)
`

const linkSameIPCypher = `
MATCH (t:Transaction {id: $id})
MATCH (o:Transaction)
WHERE o.id <> t.id AND coalesce(t.ip_address, "") <> "" AND o.ip_address = t.ip_address
WITH CASE WHEN t.id < o.id THEN t ELSE o END AS a,
     CASE WHEN t.id < o.id THEN o ELSE t END AS b
MERGE (a)-[:SAME_IP]->(b)
`

const linkSameDeviceCypher = `
MATCH (t:Transaction {id: $id})
MATCH (o:Transaction)
WHERE o.id <> t.id AND coalesce(t.device_id, "") <> "" AND o.device_id = t.device_id
WITH CASE WHEN t.id < o.id THEN t ELSE o END AS a,
     CASE WHEN t.id < o.id THEN o ELSE t END AS b
MERGE (a)-[:SAME_DEVICE]->(b)
`

const listUsersCypherTemplate = `
MATCH (u:User)
%s
RETURN u.id AS id,
       u.name AS name,
       u.email AS email,
       u.phone AS phone,
       u.address AS address,
       u.payment_method AS payment_method
ORDER BY u.id ASC
SKIP $skip LIMIT $limit
`

const countUsersCypherTemplate = `
MATCH (u:User)
%s
RETURN count(u) AS total
`

const userFilterClause = `
WHERE ($search = ""
  OR toLower(u.id) CONTAINS $search
  OR toLower(coalesce(u.name, "")) CONTAINS $search
  OR toLower(coalesce(u.email, "")) CONTAINS $search
  OR toLower(coalesce(u.phone, "")) CONTAINS $search)
`

const listTransactionsCypherTemplate = `
MATCH (t:Transaction)
%s
RETURN t.id AS id,
       t.sender_id AS sender_id,
       t.receiver_id AS receiver_id,
       t.amount AS amount,
       t.currency AS currency,
       t.status AS status,
       t.risk_score AS risk_score,
       t.ip_address AS ip_address,
       t.device_id AS device_id,
       t.timestamp AS timestamp
ORDER BY %s
SKIP $skip LIMIT $limit
`

const countTransactionsCypherTemplate = `
MATCH (t:Transaction)
%s
RETURN count(t) AS total
`

const transactionFilterClause = `
WHERE ($search = ""
  OR toLower(t.id) CONTAINS $search
  OR toLower(coalesce(t.sender_id, "")) CONTAINS $search
  OR toLower(coalesce(t.receiver_id, "")) CONTAINS $search)
  AND ($status = "" OR t.status = $status)
  AND ($minAmount < 0 OR coalesce(t.amount, 0.0) >= $minAmount)
  AND ($maxAmount < 0 OR coalesce(t.amount, 0.0) <= $maxAmount)
`

func transactionOrderClause(field, order string) string {
	dir := "DESC"
	if strings.EqualFold(order, "ASC") {
		dir = "ASC"
	}
	switch strings.ToLower(field) {
	case "amount":
		return fmt.Sprintf("coalesce(t.amount, 0.0) %s", dir)
	case "risk_score":
		return fmt.Sprintf("coalesce(t.risk_score, 0.0) %s", dir)
	case "id":
		return fmt.Sprintf("t.id %s", dir)
	default:
		return fmt.Sprintf("t.timestamp %s", dir)
	}
}

const userConnectionsCypher = `
MATCH (u:User {id: $id})-[r]->(n)
RETURN type(r) AS relType, labels(n) AS nodeLabels, properties(n) AS node
UNION
MATCH (n)-[r]->(u:User {id: $id})
WHERE type(r) IN ["SHARED_EMAIL", "SHARED_PHONE", "SHARED_ADDRESS", "SHARED_PAYMENT", "SENT"]
RETURN type(r) AS relType, labels(n) AS nodeLabels, properties(n) AS node
`

const transactionConnectionsCypher = `
MATCH (n)-[r]->(t:Transaction {id: $id})
RETURN type(r) AS relType, labels(n) AS nodeLabels, properties(n) AS node
UNION
MATCH (t:Transaction {id: $id})-[r]->(n)
WHERE type(r) IN ["SAME_IP", "SAME_DEVICE"]
RETURN type(r) AS relType, labels(n) AS nodeLabels, properties(n) AS node
`

const shortestPathCypher = `
MATCH path = shortestPath((a:User {id: $sourceId})-[*]-(b:User {id: $targetId}))
RETURN [n IN nodes(path) | coalesce(n.id, "")] AS pathIds,
       length(path) AS hops
`

const countAllUsersCypher = `MATCH (u:User) RETURN count(u) AS total`
const countAllTransactionsCypher = `MATCH (t:Transaction) RETURN count(t) AS total`
const countFlaggedCypher = `MATCH (t:Transaction {status: "flagged"}) RETURN count(t) AS total`
const countReviewCypher = `MATCH (t:Transaction {status: "review"}) RETURN count(t) AS total`
const countClearCypher = `MATCH (t:Transaction {status: "clear"}) RETURN count(t) AS total`

const fetchUsersCypher = `
MATCH (u:User)
RETURN u.id AS id,
       u.name AS name,
       u.email AS email,
       u.phone AS phone,
       u.address AS address,
       u.payment_method AS payment_method
ORDER BY u.id ASC
LIMIT $limit
`

const fetchTransactionsCypher = `
MATCH (t:Transaction)
RETURN t.id AS id,
       t.sender_id AS sender_id,
       t.receiver_id AS receiver_id,
       t.amount AS amount,
       t.currency AS currency,
       t.status AS status,
       t.risk_score AS risk_score,
       t.ip_address AS ip_address,
       t.device_id AS device_id,
       t.timestamp AS timestamp
ORDER BY t.timestamp DESC
LIMIT $limit
`

const exportUsersCypher = `
MATCH (u:User)
RETURN u.id AS id,
       u.name AS name,
       u.email AS email,
       u.phone AS phone,
       u.address AS address,
       u.payment_method AS payment_method
ORDER BY u.id ASC
`

const exportTransactionsCypher = `
MATCH (t:Transaction)
RETURN t.id AS id,
       t.sender_id AS sender_id,
       t.receiver_id AS receiver_id,
       t.amount AS amount,
       t.currency AS currency,
       t.status AS status,
       t.risk_score AS risk_score,
       t.ip_address AS ip_address,
       t.device_id AS device_id,
       t.timestamp AS timestamp
ORDER BY t.id ASC
`
