package graphview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meera/framl/internal/domain"
)

func TestAssembleFocusedUserZeroMatches(t *testing.T) {
	g := AssembleFocused("U9", KindUser, nil, nil, FocusAll, Options{})

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "U9", g.Nodes[0].ID)
	assert.Equal(t, KindUser, g.Nodes[0].Kind)
	assert.Empty(t, g.Edges)
	assert.Equal(t, StatusNoConnections, g.StatusText)
}

func TestAssembleFocusedUserDirectTransfers(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "T1", SenderID: "U1", ReceiverID: "U2"},
		{ID: "T2", SenderID: "U3", ReceiverID: "U1"},
		{ID: "T3", SenderID: "U2", ReceiverID: "U3"}, // does not touch U1
	}

	g := AssembleFocused("U1", KindUser, nil, txs, FocusAll, Options{})

	require.Len(t, g.Edges, 2)
	assert.Equal(t, Edge{From: "U1", To: "U2", Relation: RelationSent, Label: "SENT"}, g.Edges[0])
	assert.Equal(t, Edge{From: "U3", To: "U1", Relation: RelationSent, Label: "SENT"}, g.Edges[1])
	assert.Empty(t, g.StatusText)
}

func TestAssembleFocusedUserOneHopContainment(t *testing.T) {
	users := []domain.User{
		{ID: "U1"},
		{ID: "U2", Email: "a@x.com"},
		{ID: "U3", Email: "a@x.com"},
		// U4 and U5 share a phone but neither touches U1.
		{ID: "U4", Phone: "999"},
		{ID: "U5", Phone: "999"},
	}
	txs := []domain.Transaction{
		{ID: "T1", SenderID: "U1", ReceiverID: "U2"},
	}

	g := AssembleFocused("U1", KindUser, users, txs, FocusAll, Options{})

	direct := map[string]struct{}{"U1": {}}
	for _, e := range g.Edges {
		if e.Relation == RelationSent {
			direct[e.From] = struct{}{}
			direct[e.To] = struct{}{}
		}
	}
	for _, e := range g.Edges {
		_, fromOK := direct[e.From]
		_, toOK := direct[e.To]
		assert.True(t, fromOK || toOK, "edge %v escapes the 1-hop neighborhood", e)
	}

	// U2 is a direct counterparty, so its shared-email link to U3 is included;
	// the unrelated U4/U5 pair is not.
	assert.Len(t, edgesInFocused(g, RelationSharedEmail), 1)
	assert.Empty(t, edgesInFocused(g, RelationSharedPhone))
}

func TestAssembleFocusedUserRadioFilter(t *testing.T) {
	users := []domain.User{
		{ID: "U1", Email: "a@x.com"},
		{ID: "U2", Email: "a@x.com"},
	}
	txs := []domain.Transaction{
		{ID: "T1", SenderID: "U1", ReceiverID: "U2"},
	}

	g := AssembleFocused("U1", KindUser, users, txs, FocusEmail, Options{})

	require.Len(t, g.Edges, 1)
	assert.Equal(t, RelationSharedEmail, g.Edges[0].Relation)
}

func TestAssembleFocusedTransaction(t *testing.T) {
	users := []domain.User{
		{ID: "U1", Email: "a@x.com"},
		{ID: "U3", Email: "a@x.com"},
		{ID: "U2"},
	}
	txs := []domain.Transaction{
		{ID: "T1", SenderID: "U1", ReceiverID: "U2", IPAddress: "10.0.0.1", DeviceID: "dev-a", Status: domain.StatusReview},
		{ID: "T2", SenderID: "U3", ReceiverID: "U1", IPAddress: "10.0.0.1"},
		{ID: "T3", SenderID: "U2", ReceiverID: "U3", DeviceID: "dev-a"},
	}

	g := AssembleFocused("T1", KindTransaction, users, txs, FocusAll, Options{})

	require.Len(t, edgesInFocused(g, RelationSent), 1)
	require.Len(t, edgesInFocused(g, RelationDebit), 1)
	assert.Equal(t, "U1", edgesInFocused(g, RelationSent)[0].From)
	assert.Equal(t, "U2", edgesInFocused(g, RelationDebit)[0].To)

	// Sender U1 shares an email with U3.
	require.Len(t, edgesInFocused(g, RelationSharedEmail), 1)

	// Context links to the other transactions in the snapshot.
	ipLinks := edgesInFocused(g, RelationSameIP)
	require.Len(t, ipLinks, 1)
	assert.Equal(t, "T2", ipLinks[0].To)
	devLinks := edgesInFocused(g, RelationSameDevice)
	require.Len(t, devLinks, 1)
	assert.Equal(t, "T3", devLinks[0].To)

	focal := findFocusedNode(t, g, "T1")
	assert.Equal(t, domain.StatusReview, focal.Status)
}

func TestAssembleFocusedTransactionAttributeRadioFilter(t *testing.T) {
	users := []domain.User{
		{ID: "U1", Email: "a@x.com"},
		{ID: "U3", Email: "a@x.com"},
		{ID: "U2", Phone: "111"},
		{ID: "U4", Phone: "111"},
	}
	txs := []domain.Transaction{
		{ID: "T1", SenderID: "U1", ReceiverID: "U2", IPAddress: "10.0.0.1"},
		{ID: "T2", SenderID: "U3", ReceiverID: "U4", IPAddress: "10.0.0.1"},
	}

	// The sender's shared-email link survives even though the credit and
	// debit legs are filtered out.
	g := AssembleFocused("T1", KindTransaction, users, txs, FocusEmail, Options{})

	require.Len(t, g.Edges, 1)
	assert.Equal(t, Edge{From: "U1", To: "U3", Relation: RelationSharedEmail, Label: "SHARED_EMAIL: a@x.com"}, g.Edges[0])
	assert.Empty(t, g.StatusText)

	// Same for the receiver's shared phone.
	g = AssembleFocused("T1", KindTransaction, users, txs, FocusPhone, Options{})

	require.Len(t, g.Edges, 1)
	assert.Equal(t, RelationSharedPhone, g.Edges[0].Relation)
	assert.Equal(t, "U2", g.Edges[0].From)
	assert.Empty(t, edgesInFocused(g, RelationSent))
	assert.Empty(t, edgesInFocused(g, RelationDebit))
	assert.Empty(t, edgesInFocused(g, RelationSameIP))
}

func TestAssembleFocusedTransactionContextCap(t *testing.T) {
	txs := []domain.Transaction{{ID: "T0", IPAddress: "10.0.0.1"}}
	for i := 1; i <= 12; i++ {
		txs = append(txs, domain.Transaction{ID: "T" + string(rune('A'+i-1)), IPAddress: "10.0.0.1"})
	}

	g := AssembleFocused("T0", KindTransaction, nil, txs, FocusIP, Options{ContextGroupCap: 3})

	assert.Len(t, g.Edges, 3)
}

func TestAssembleFocusedUnknownTransaction(t *testing.T) {
	g := AssembleFocused("T404", KindTransaction, nil, nil, FocusAll, Options{})

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, KindTransaction, g.Nodes[0].Kind)
	assert.Equal(t, StatusNoConnections, g.StatusText)
}

func edgesInFocused(g FocusedGraph, rel Relation) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Relation == rel {
			out = append(out, e)
		}
	}
	return out
}

func findFocusedNode(t *testing.T, g FocusedGraph, id string) Node {
	t.Helper()
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %s not found", id)
	return Node{}
}
