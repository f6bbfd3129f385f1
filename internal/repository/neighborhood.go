package repository

import (
	"context"
	"fmt"

	"github.com/vanshika/fintrace/internal/domain"
)

// FetchNeighborhood runs the one- and two-hop traversal around seed. A nil
// neighborhood is returned when the seed does not exist.
func (r *Repository) FetchNeighborhood(ctx context.Context, seed domain.NodeRef, hops domain.HopSpec) (domain.Neighborhood, error) {
	switch seed.Label {
	case domain.LabelUser:
		return r.fetchUserNeighborhood(ctx, seed.ID, hops)
	case domain.LabelTransaction:
		return r.fetchTransactionNeighborhood(ctx, seed.ID, hops)
	default:
		return nil, fmt.Errorf("%w: seed label %s", ErrInvalidQuery, seed.Label)
	}
}

func (r *Repository) fetchUserNeighborhood(ctx context.Context, userID string, hops domain.HopSpec) (domain.Neighborhood, error) {
	res, err := r.client.ExecuteRead(ctx, userNeighborhoodCypher, map[string]any{
		"id":          userID,
		"sharedLimit": int64(hops.SharedLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch user neighborhood %s: %w", userID, err)
	}

	record := res.Single()
	if record == nil {
		return nil, nil
	}
	user := userFromProps(record["user"])
	if user.ID == "" {
		return nil, nil
	}

	return &domain.UserNeighborhood{
		User:           user,
		Transactions:   transactionsFromList(record["transactions"]),
		Counterparties: usersFromList(record["counterparties"]),
		SharedUsers:    usersFromList(record["shared"]),
	}, nil
}

func (r *Repository) fetchTransactionNeighborhood(ctx context.Context, txID string, hops domain.HopSpec) (domain.Neighborhood, error) {
	res, err := r.client.ExecuteRead(ctx, transactionNeighborhoodCypher, map[string]any{
		"id":          txID,
		"linkedLimit": int64(hops.LinkedLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch transaction neighborhood %s: %w", txID, err)
	}

	record := res.Single()
	if record == nil {
		return nil, nil
	}
	tx := transactionFromProps(record["transaction"])
	if tx.ID == "" {
		return nil, nil
	}

	return &domain.TransactionNeighborhood{
		Transaction: tx,
		Senders:     usersFromList(record["senders"]),
		Receivers:   usersFromList(record["receivers"]),
		Linked:      transactionsFromList(record["linked"]),
	}, nil
}

// Shared users are direct user-to-user neighbors first, then users whose
// email, phone or address matches after trimming and lowercasing. Blank
// values never match.
const userNeighborhoodCypher = `
MATCH (u:User {id: $id})
OPTIONAL MATCH (u)-[:SENT|RECEIVED_BY]-(t:Transaction)
WITH u, collect(DISTINCT t) AS txs
OPTIONAL MATCH (u)-[:SENT|RECEIVED_BY]-(:Transaction)-[:SENT|RECEIVED_BY]-(cp:User)
WHERE cp.id <> u.id
WITH u, txs, collect(DISTINCT cp) AS counterparties
OPTIONAL MATCH (u)--(direct:User)
WHERE direct.id <> u.id
WITH u, txs, counterparties, collect(DISTINCT direct) AS direct
OPTIONAL MATCH (peer:User)
WHERE peer.id <> u.id
  AND ((trim(coalesce(u.email, "")) <> "" AND toLower(trim(peer.email)) = toLower(trim(u.email)))
    OR (trim(coalesce(u.phone, "")) <> "" AND toLower(trim(peer.phone)) = toLower(trim(u.phone)))
    OR (trim(coalesce(u.address, "")) <> "" AND toLower(trim(peer.address)) = toLower(trim(u.address))))
WITH u, txs, counterparties, direct, collect(DISTINCT peer) AS peers
WITH u, txs, counterparties, direct + [p IN peers WHERE NOT p IN direct] AS shared
RETURN u {.*} AS user,
       [t IN txs | t {.*}] AS transactions,
       [c IN counterparties | c {.*}] AS counterparties,
       [s IN CASE WHEN $sharedLimit > 0 THEN shared[0..$sharedLimit] ELSE shared END | s {.*}] AS shared
`

// Linked transactions are matched without direction so a transaction sees the
// edges it created and the edges later transactions created toward it.
const transactionNeighborhoodCypher = `
MATCH (t:Transaction {id: $id})
OPTIONAL MATCH (sender:User)-[:SENT]->(t)
WITH t, collect(DISTINCT sender) AS senders
OPTIONAL MATCH (t)-[:RECEIVED_BY]->(receiver:User)
WITH t, senders, collect(DISTINCT receiver) AS receivers
OPTIONAL MATCH (t)-[:SAME_IP|SAME_DEVICE]-(other:Transaction)
WHERE other.id <> t.id
WITH t, senders, receivers, collect(DISTINCT other) AS linked
RETURN t {.*} AS transaction,
       [s IN senders | s {.*}] AS senders,
       [r IN receivers | r {.*}] AS receivers,
       [o IN CASE WHEN $linkedLimit > 0 THEN linked[0..$linkedLimit] ELSE linked END | o {.*}] AS linked
`
