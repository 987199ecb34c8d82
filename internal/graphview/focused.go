package graphview

import "github.com/meera/framl/internal/domain"

// FocusFilter selects the single relation category shown in a focused view.
// Unlike Filters these are radio-button semantics: exactly one is active, with
// FocusAll meaning the union of every category.
type FocusFilter string

const (
	FocusAll     FocusFilter = "all"
	FocusCredit  FocusFilter = "credit"
	FocusDebit   FocusFilter = "debit"
	FocusEmail   FocusFilter = "email"
	FocusPhone   FocusFilter = "phone"
	FocusAddress FocusFilter = "address"
	FocusPayment FocusFilter = "payment"
	FocusIP      FocusFilter = "ip"
	FocusDevice  FocusFilter = "device"
)

// StatusNoConnections is surfaced when a focused build matches nothing beyond
// the focal entity itself.
const StatusNoConnections = "No connections match this filter"

// FocusedGraph is the 1-hop neighborhood around a focal entity.
type FocusedGraph struct {
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
	StatusText string `json:"status_text,omitempty"`
}

func (f FocusFilter) is(category FocusFilter) bool {
	return f == FocusAll || f == category
}

// AssembleFocused builds the restricted graph centered on one focal entity.
// Only edges touching ids reachable from the focal entity within one relation
// hop are included. A focal id with zero matches yields a single-node graph
// with an explanatory status string, never an error.
func AssembleFocused(focalID string, focalKind NodeKind, users []domain.User, txs []domain.Transaction, active FocusFilter, opts Options) FocusedGraph {
	opts = opts.withDefaults()
	b := newBuilder(opts)

	for _, u := range users {
		b.registerUser(u.ID, u.Name)
	}
	for _, tx := range txs {
		b.registerTransaction(tx.ID, tx.Status)
	}

	switch focalKind {
	case KindTransaction:
		b.ensureTransaction(focalID)
		focusTransaction(b, focalID, users, txs, active)
	default:
		b.ensureUser(focalID)
		focusUser(b, focalID, users, txs, active)
	}

	graph := b.finish()
	focused := FocusedGraph{Nodes: graph.Nodes, Edges: graph.Edges}
	if len(focused.Edges) == 0 {
		focused.StatusText = StatusNoConnections
	}
	return focused
}

// focusUser collects direct transfers to and from the focal user, then shared
// attribute edges anchored on the focal user and its direct counterparties.
func focusUser(b *builder, focalID string, users []domain.User, txs []domain.Transaction, active FocusFilter) {
	anchors := map[string]struct{}{focalID: {}}

	for _, tx := range txs {
		if tx.ID == "" {
			continue
		}
		if tx.SenderID == focalID && active.is(FocusCredit) {
			b.ensureUser(tx.ReceiverID)
			b.addEdge(focalID, tx.ReceiverID, RelationSent, string(RelationSent))
			if tx.ReceiverID != "" {
				anchors[tx.ReceiverID] = struct{}{}
			}
		}
		if tx.ReceiverID == focalID && active.is(FocusDebit) {
			b.ensureUser(tx.SenderID)
			b.addEdge(tx.SenderID, focalID, RelationSent, string(RelationSent))
			if tx.SenderID != "" {
				anchors[tx.SenderID] = struct{}{}
			}
		}
	}

	idx := IndexUsers(users)
	if active.is(FocusEmail) {
		b.expandAnchored(idx.Email, RelationSharedEmail, anchors, b.ensureUser)
	}
	if active.is(FocusPhone) {
		b.expandAnchored(idx.Phone, RelationSharedPhone, anchors, b.ensureUser)
	}
	if active.is(FocusAddress) {
		b.expandAnchored(idx.Address, RelationSharedAddress, anchors, b.ensureUser)
	}
	if active.is(FocusPayment) {
		b.expandAnchored(idx.Payment, RelationSharedPayment, anchors, b.ensureUser)
	}
}

// focusTransaction collects the credit/debit legs of the focal transaction,
// shared-attribute edges anchored on its sender and receiver, and same-context
// links to other transactions in the snapshot.
func focusTransaction(b *builder, focalID string, users []domain.User, txs []domain.Transaction, active FocusFilter) {
	var focal *domain.Transaction
	for i := range txs {
		if txs[i].ID == focalID {
			focal = &txs[i]
			break
		}
	}
	if focal == nil {
		return
	}

	// Anchors are always the transaction's parties. The filter hides the
	// credit/debit legs themselves but never the parties' attribute links.
	anchors := make(map[string]struct{})
	if focal.SenderID != "" {
		anchors[focal.SenderID] = struct{}{}
	}
	if focal.ReceiverID != "" {
		anchors[focal.ReceiverID] = struct{}{}
	}

	if active.is(FocusCredit) && focal.SenderID != "" {
		b.ensureUser(focal.SenderID)
		b.addEdge(focal.SenderID, focalID, RelationSent, string(RelationSent))
	}
	if active.is(FocusDebit) && focal.ReceiverID != "" {
		b.ensureUser(focal.ReceiverID)
		b.addEdge(focalID, focal.ReceiverID, RelationDebit, string(RelationDebit))
	}

	if len(anchors) > 0 {
		idx := IndexUsers(users)
		if active.is(FocusEmail) {
			b.expandAnchored(idx.Email, RelationSharedEmail, anchors, b.ensureUser)
		}
		if active.is(FocusPhone) {
			b.expandAnchored(idx.Phone, RelationSharedPhone, anchors, b.ensureUser)
		}
		if active.is(FocusAddress) {
			b.expandAnchored(idx.Address, RelationSharedAddress, anchors, b.ensureUser)
		}
		if active.is(FocusPayment) {
			b.expandAnchored(idx.Payment, RelationSharedPayment, anchors, b.ensureUser)
		}
	}

	if active.is(FocusIP) && focal.IPAddress != "" {
		linkContext(b, focalID, txs, RelationSameIP, focal.IPAddress, func(t domain.Transaction) string { return t.IPAddress })
	}
	if active.is(FocusDevice) && focal.DeviceID != "" {
		linkContext(b, focalID, txs, RelationSameDevice, focal.DeviceID, func(t domain.Transaction) string { return t.DeviceID })
	}
}

// linkContext attaches other transactions sharing the focal transaction's
// context value, bounded by the context group cap.
func linkContext(b *builder, focalID string, txs []domain.Transaction, rel Relation, value string, key func(domain.Transaction) string) {
	label := string(rel) + ": " + value
	linked := 0
	for _, tx := range txs {
		if tx.ID == "" || tx.ID == focalID || key(tx) != value {
			continue
		}
		if linked >= b.opts.ContextGroupCap {
			break
		}
		b.ensureTransaction(tx.ID)
		if b.addEdge(focalID, tx.ID, rel, label) {
			linked++
		}
	}
}
