package graphview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meera/framl/internal/domain"
)

func TestIndexSkipsEmptyValuesAndIDs(t *testing.T) {
	ix := NewIndex()
	ix.Add("", "U1")
	ix.Add("a@x.com", "")
	ix.Add("a@x.com", "U1")

	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, []string{"U1"}, ix.Group("a@x.com"))
}

func TestIndexDeduplicatesIDsWithinGroup(t *testing.T) {
	ix := NewIndex()
	ix.Add("v", "U1")
	ix.Add("v", "U2")
	ix.Add("v", "U1")

	assert.Equal(t, []string{"U1", "U2"}, ix.Group("v"))
}

func TestIndexPreservesFirstSeenOrder(t *testing.T) {
	ix := NewIndex()
	ix.Add("beta", "U2")
	ix.Add("alpha", "U1")
	ix.Add("beta", "U3")

	var values [][]string
	ix.Each(func(value string, ids []string) {
		values = append(values, append([]string{value}, ids...))
	})

	assert.Equal(t, [][]string{
		{"beta", "U2", "U3"},
		{"alpha", "U1"},
	}, values)
}

func TestIndexUsersGroupsAllFourAttributes(t *testing.T) {
	users := []domain.User{
		{ID: "U1", Email: "a@x.com", Phone: "111", Address: "1 Main St", PaymentMethod: "card_1"},
		{ID: "U2", Email: "a@x.com", Phone: "222", Address: "1 Main St", PaymentMethod: "card_2"},
		{ID: "U3", Email: "", Phone: "111"},
	}

	idx := IndexUsers(users)

	assert.Equal(t, []string{"U1", "U2"}, idx.Email.Group("a@x.com"))
	assert.Equal(t, []string{"U1", "U3"}, idx.Phone.Group("111"))
	assert.Equal(t, []string{"U1", "U2"}, idx.Address.Group("1 Main St"))
	assert.Equal(t, []string{"U1"}, idx.Payment.Group("card_1"))
}

func TestIndexTransactionsGroupsContext(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "T1", IPAddress: "10.0.0.1", DeviceID: "dev-a"},
		{ID: "T2", IPAddress: "10.0.0.1", DeviceID: "dev-b"},
		{ID: "T3", IPAddress: "", DeviceID: "dev-a"},
	}

	idx := IndexTransactions(txs)

	assert.Equal(t, []string{"T1", "T2"}, idx.IP.Group("10.0.0.1"))
	assert.Equal(t, []string{"T1", "T3"}, idx.Device.Group("dev-a"))
}
