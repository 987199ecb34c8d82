package graphview

import "github.com/meera/framl/internal/domain"

// Index maps an attribute value to the ordered list of entity ids sharing it.
// An id appears in a given value's list at most once; both values and ids keep
// first-seen order from the input record list, which makes group iteration and
// pair expansion deterministic.
type Index struct {
	groups map[string][]string
	order  []string
	seen   map[string]map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		groups: make(map[string][]string),
		seen:   make(map[string]map[string]struct{}),
	}
}

// Add appends id to the group for value. Empty values never form a group;
// empty ids are skipped.
func (ix *Index) Add(value, id string) {
	if value == "" || id == "" {
		return
	}
	members, exists := ix.seen[value]
	if !exists {
		members = make(map[string]struct{})
		ix.seen[value] = members
		ix.order = append(ix.order, value)
	}
	if _, dup := members[id]; dup {
		return
	}
	members[id] = struct{}{}
	ix.groups[value] = append(ix.groups[value], id)
}

// Group returns the ids recorded for value.
func (ix *Index) Group(value string) []string {
	return ix.groups[value]
}

// Len reports the number of distinct values.
func (ix *Index) Len() int {
	return len(ix.order)
}

// Each visits every group in first-seen value order.
func (ix *Index) Each(fn func(value string, ids []string)) {
	for _, value := range ix.order {
		fn(value, ix.groups[value])
	}
}

// Build groups records by the given key. Records with an empty id or an empty
// key value do not participate.
func Build[T any](records []T, id func(T) string, key func(T) string) *Index {
	ix := NewIndex()
	for _, rec := range records {
		ix.Add(key(rec), id(rec))
	}
	return ix
}

// UserIndices bundles the four shared-attribute indices built from users.
type UserIndices struct {
	Email   *Index
	Phone   *Index
	Address *Index
	Payment *Index
}

// ContextIndices bundles the shared-context indices built from transactions.
type ContextIndices struct {
	IP     *Index
	Device *Index
}

// IndexUsers builds all shared-attribute indices in one pass over the users.
func IndexUsers(users []domain.User) UserIndices {
	userID := func(u domain.User) string { return u.ID }
	return UserIndices{
		Email:   Build(users, userID, func(u domain.User) string { return u.Email }),
		Phone:   Build(users, userID, func(u domain.User) string { return u.Phone }),
		Address: Build(users, userID, func(u domain.User) string { return u.Address }),
		Payment: Build(users, userID, func(u domain.User) string { return u.PaymentMethod }),
	}
}

// IndexTransactions builds the IP and device indices from transactions.
func IndexTransactions(txs []domain.Transaction) ContextIndices {
	txID := func(t domain.Transaction) string { return t.ID }
	return ContextIndices{
		IP:     Build(txs, txID, func(t domain.Transaction) string { return t.IPAddress }),
		Device: Build(txs, txID, func(t domain.Transaction) string { return t.DeviceID }),
	}
}
