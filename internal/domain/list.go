package domain

// UserListResult captures paginated user list results.
type UserListResult struct {
	Items []User
	Total int64
}

// TransactionListResult captures paginated transaction list results.
type TransactionListResult struct {
	Items []Transaction
	Total int64
}
