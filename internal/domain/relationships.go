package domain

// Neighborhood is the raw traversal result for a seed node. It is a closed
// union: *UserNeighborhood or *TransactionNeighborhood. Stores return a nil
// Neighborhood when the seed does not exist.
type Neighborhood interface {
	isNeighborhood()
}

// UserNeighborhood is the raw result of a user-seeded traversal.
type UserNeighborhood struct {
	User User
	// Transactions are reachable through one SENT or RECEIVED_BY hop in either direction.
	Transactions []Transaction
	// Counterparties are the other users attached to those transactions.
	Counterparties []User
	// SharedUsers are connected to the seed without a transaction in between:
	// a direct user-to-user relationship or an equal email, phone or address.
	SharedUsers []User
}

func (*UserNeighborhood) isNeighborhood() {}

// TransactionNeighborhood is the raw result of a transaction-seeded traversal.
type TransactionNeighborhood struct {
	Transaction Transaction
	Senders     []User
	Receivers   []User
	// Linked holds transactions one SAME_IP or SAME_DEVICE hop away, in
	// either direction.
	Linked []Transaction
}

func (*TransactionNeighborhood) isNeighborhood() {}

// HopSpec bounds the optional parts of a traversal. Zero means unbounded.
type HopSpec struct {
	SharedLimit int
	LinkedLimit int
}

// AttributeQuery selects nodes of one label whose attribute equals Value,
// excluding ExcludeID, returning at most Limit matches.
type AttributeQuery struct {
	Label     Label
	Attribute string
	Value     string
	ExcludeID string
	Limit     int
}
