package graphview

import "github.com/meera/framl/internal/domain"

// Assemble is the engine's public entry point: it composes direct transfer
// edges, shared-attribute edges, and shared-context edges under the given
// filter set, deduplicates nodes and edges globally, and derives visual size
// from node degree. Empty record lists yield an empty graph, not an error.
//
// Step order is fixed: direct edges first, then user-attribute expansion,
// then transaction-context expansion. Edge dedup spans all steps.
func Assemble(users []domain.User, txs []domain.Transaction, filters Filters, opts Options) Graph {
	opts = opts.withDefaults()
	b := newBuilder(opts)

	for _, u := range users {
		b.registerUser(u.ID, u.Name)
	}
	for _, tx := range txs {
		b.registerTransaction(tx.ID, tx.Status)
	}

	// Every known record becomes a node for its enabled category, connected or
	// not. Isolated accounts still matter on the canvas.
	if filters.Users {
		for _, u := range users {
			b.ensureUser(u.ID)
		}
	}
	if filters.Transactions {
		for _, tx := range txs {
			b.ensureTransaction(tx.ID)
		}
	}

	// Step 1: credit/debit legs between senders, transactions, and receivers.
	if filters.Users && filters.Transactions {
		for _, tx := range txs {
			if tx.ID == "" {
				continue
			}
			b.ensureUser(tx.SenderID)
			b.ensureUser(tx.ReceiverID)
			b.ensureTransaction(tx.ID)
			if filters.Credit {
				b.addEdge(tx.SenderID, tx.ID, RelationSent, string(RelationSent))
			}
			if filters.Debit {
				b.addEdge(tx.ID, tx.ReceiverID, RelationDebit, string(RelationDebit))
			}
		}
	}

	// Step 2: users linked through shared identifying attributes.
	if filters.Users {
		idx := IndexUsers(users)
		if filters.Email {
			b.expandPairs(idx.Email, RelationSharedEmail, opts.UserGroupCap, b.ensureUser)
		}
		if filters.Phone {
			b.expandPairs(idx.Phone, RelationSharedPhone, opts.UserGroupCap, b.ensureUser)
		}
		if filters.Address {
			b.expandPairs(idx.Address, RelationSharedAddress, opts.UserGroupCap, b.ensureUser)
		}
		if filters.Payment {
			b.expandPairs(idx.Payment, RelationSharedPayment, opts.UserGroupCap, b.ensureUser)
		}
	}

	// Step 3: transactions linked through shared context, under the tighter cap.
	if filters.Transactions {
		idx := IndexTransactions(txs)
		if filters.IP {
			b.expandPairs(idx.IP, RelationSameIP, opts.ContextGroupCap, b.ensureTransaction)
		}
		if filters.Device {
			b.expandPairs(idx.Device, RelationSameDevice, opts.ContextGroupCap, b.ensureTransaction)
		}
	}

	return b.finish()
}
