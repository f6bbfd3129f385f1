package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vanshika/fintrace/internal/domain"
	"github.com/vanshika/fintrace/internal/graph"
)

// ErrInvalidQuery is returned when a caller asks for a label, attribute or
// edge type the repository does not know how to address.
var ErrInvalidQuery = domain.ErrInvalidQuery

// Repository implements the fraud graph store on top of a Cypher client.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// VerifyConnectivity reports whether the backing database is reachable.
func (r *Repository) VerifyConnectivity(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

// MergeUser creates the user node or overwrites its properties, and returns
// the stored snapshot.
func (r *Repository) MergeUser(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		return domain.User{}, errors.New("user id is required")
	}

	params := map[string]any{
		"id":             user.ID,
		"name":           nullable(user.Name),
		"email":          nullable(user.Email),
		"phone":          nullable(user.Phone),
		"address":        nullable(user.Address),
		"paymentMethods": nullableList(user.PaymentMethods),
	}

	res, err := r.client.ExecuteWrite(ctx, mergeUserCypher, params)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user %s: %w", user.ID, err)
	}
	if rec := res.Single(); rec != nil {
		return userFromProps(rec["user"]), nil
	}
	return user, nil
}

// MergeTransaction creates the transaction node or overwrites its
// properties, attaching SENT and RECEIVED_BY edges to whichever parties
// exist. Both happen in a single statement.
func (r *Repository) MergeTransaction(ctx context.Context, tx domain.Transaction, parties domain.Parties) (domain.Transaction, error) {
	if tx.ID == "" {
		return domain.Transaction{}, errors.New("transaction id is required")
	}

	metadata, err := serializeMetadata(tx.Metadata)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("encode metadata for transaction %s: %w", tx.ID, err)
	}

	params := map[string]any{
		"id":         tx.ID,
		"amount":     tx.Amount,
		"timestamp":  tx.Timestamp,
		"ip":         nullable(tx.IP),
		"deviceId":   nullable(tx.DeviceID),
		"metadata":   metadata,
		"senderId":   nullable(parties.SenderID),
		"receiverId": nullable(parties.ReceiverID),
	}

	res, err := r.client.ExecuteWrite(ctx, mergeTransactionCypher, params)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
	}
	if rec := res.Single(); rec != nil {
		return transactionFromProps(rec["transaction"]), nil
	}
	return tx, nil
}

// FindByAttribute returns up to q.Limit nodes whose attribute equals q.Value,
// most recent first.
func (r *Repository) FindByAttribute(ctx context.Context, q domain.AttributeQuery) ([]domain.NodeRef, error) {
	if !searchableAttribute(q.Label, q.Attribute) {
		return nil, fmt.Errorf("%w: attribute %s on %s", ErrInvalidQuery, q.Attribute, q.Label)
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidQuery)
	}

	query := fmt.Sprintf(findByAttributeCypherTemplate, q.Label, q.Attribute)
	res, err := r.client.ExecuteRead(ctx, query, map[string]any{
		"value":     q.Value,
		"excludeId": q.ExcludeID,
		"limit":     int64(q.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", q.Label, q.Attribute, err)
	}

	refs := make([]domain.NodeRef, 0, len(res.Records))
	for _, record := range res.Records {
		if id := toString(record["id"]); id != "" {
			refs = append(refs, domain.NodeRef{Label: q.Label, ID: id})
		}
	}
	return refs, nil
}

// MergeDirectedEdges ensures an edge of the given type from one node to each
// target. Targets must share a label. Missing targets and self references
// are skipped; the number of edges now present is returned.
func (r *Repository) MergeDirectedEdges(ctx context.Context, from domain.NodeRef, edgeType domain.EdgeType, to []domain.NodeRef) (int, error) {
	if len(to) == 0 {
		return 0, nil
	}
	if !knownLabel(from.Label) || !knownEdgeType(edgeType) {
		return 0, fmt.Errorf("%w: edge %s from %s", ErrInvalidQuery, edgeType, from.Label)
	}
	toLabel := to[0].Label
	ids := make([]string, 0, len(to))
	for _, ref := range to {
		if ref.Label != toLabel {
			return 0, fmt.Errorf("%w: mixed target labels %s and %s", ErrInvalidQuery, toLabel, ref.Label)
		}
		ids = append(ids, ref.ID)
	}
	if !knownLabel(toLabel) {
		return 0, fmt.Errorf("%w: target label %s", ErrInvalidQuery, toLabel)
	}

	query := fmt.Sprintf(mergeEdgesCypherTemplate, from.Label, toLabel, edgeType)
	res, err := r.client.ExecuteWrite(ctx, query, map[string]any{
		"fromId": from.ID,
		"toIds":  ids,
	})
	if err != nil {
		return 0, fmt.Errorf("merge %s edges from %s: %w", edgeType, from, err)
	}
	if rec := res.Single(); rec != nil {
		return int(toInt64(rec["edges"])), nil
	}
	return 0, nil
}

func searchableAttribute(label domain.Label, attribute string) bool {
	switch label {
	case domain.LabelTransaction:
		return attribute == domain.AttributeIP || attribute == domain.AttributeDeviceID
	case domain.LabelUser:
		return attribute == "email" || attribute == "phone" || attribute == "address"
	}
	return false
}

func knownLabel(label domain.Label) bool {
	return label == domain.LabelUser || label == domain.LabelTransaction
}

func knownEdgeType(t domain.EdgeType) bool {
	switch t {
	case domain.EdgeSent, domain.EdgeReceivedBy, domain.EdgeSameIP, domain.EdgeSameDevice:
		return true
	}
	return false
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableList(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return append([]string(nil), values...)
}

func serializeMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	bytes, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

func deserializeMetadata(val any) map[string]any {
	switch v := val.(type) {
	case map[string]any:
		return v
	case string:
		if v == "" {
			return nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return map[string]any{"raw": v}
		}
		return out
	}
	return nil
}

func userFromProps(val any) domain.User {
	props, _ := val.(map[string]any)
	return domain.User{
		ID:             toString(props["id"]),
		Name:           toString(props["name"]),
		Email:          toString(props["email"]),
		Phone:          toString(props["phone"]),
		Address:        toString(props["address"]),
		PaymentMethods: toStrings(props["paymentMethods"]),
	}
}

func transactionFromProps(val any) domain.Transaction {
	props, _ := val.(map[string]any)
	return domain.Transaction{
		ID:        toString(props["id"]),
		Amount:    toFloat64(props["amount"]),
		Timestamp: toInt64(props["timestamp"]),
		IP:        toString(props["ip"]),
		DeviceID:  toString(props["deviceId"]),
		Metadata:  deserializeMetadata(props["metadata"]),
	}
}

func usersFromList(val any) []domain.User {
	items, _ := val.([]any)
	users := make([]domain.User, 0, len(items))
	for _, item := range items {
		if u := userFromProps(item); u.ID != "" {
			users = append(users, u)
		}
	}
	return users
}

func transactionsFromList(val any) []domain.Transaction {
	items, _ := val.([]any)
	txs := make([]domain.Transaction, 0, len(items))
	for _, item := range items {
		if t := transactionFromProps(item); t.ID != "" {
			txs = append(txs, t)
		}
	}
	return txs
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

func toStrings(val any) []string {
	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
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

const mergeUserCypher = `
MERGE (u:User {id: $id})
SET u.name = $name,
    u.email = $email,
    u.phone = $phone,
    u.address = $address,
    u.paymentMethods = $paymentMethods
RETURN u {.*} AS user
`

const mergeTransactionCypher = `
MERGE (t:Transaction {id: $id})
SET t.amount = $amount,
    t.timestamp = $timestamp,
    t.ip = $ip,
    t.deviceId = $deviceId,
    t.metadata = $metadata
WITH t
OPTIONAL MATCH (sender:User {id: $senderId})
OPTIONAL MATCH (receiver:User {id: $receiverId})
FOREACH (_ IN CASE WHEN sender IS NULL THEN [] ELSE [1] END |
	MERGE (sender)-[:SENT]->(t)
)
FOREACH (_ IN CASE WHEN receiver IS NULL THEN [] ELSE [1] END |
	MERGE (t)-[:RECEIVED_BY]->(receiver)
)
RETURN t {.*} AS transaction
`

const findByAttributeCypherTemplate = `
MATCH (o:%s)
WHERE o.%s = $value AND o.id <> $excludeId
RETURN o.id AS id
ORDER BY coalesce(o.timestamp, 0) DESC, o.id ASC
LIMIT $limit
`

const mergeEdgesCypherTemplate = `
MATCH (from:%s {id: $fromId})
UNWIND $toIds AS toId
MATCH (to:%s {id: toId})
WHERE to.id <> from.id
MERGE (from)-[:%s]->(to)
RETURN count(to) AS edges
`
