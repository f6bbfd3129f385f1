package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vanshika/fintrace/internal/domain"
	"github.com/vanshika/fintrace/internal/graph"
)

func TestRepository_MergeUser(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	mem.PushWriteResult(graph.Result{Records: []graph.Record{
		{"user": map[string]any{
			"id":             "u1",
			"name":           "Jane Doe",
			"email":          "jane@example.com",
			"paymentMethods": []any{"card", "upi"},
		}},
	}})

	user := domain.User{
		ID:             "u1",
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		PaymentMethods: []string{"card", "upi"},
	}

	stored, err := repo.MergeUser(context.Background(), user)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 write query, got %d", len(calls))
	}

	call := calls[0]
	if call.Query != mergeUserCypher {
		t.Fatalf("unexpected query\nexpected:\n%s\ngot:\n%s", mergeUserCypher, call.Query)
	}
	if call.Params["id"] != "u1" {
		t.Errorf("expected id u1, got %v", call.Params["id"])
	}
	if call.Params["phone"] != nil {
		t.Errorf("blank phone should be sent as null, got %v", call.Params["phone"])
	}

	if stored.Name != "Jane Doe" || len(stored.PaymentMethods) != 2 {
		t.Errorf("unexpected stored user %+v", stored)
	}
}

func TestRepository_MergeUserRequiresID(t *testing.T) {
	repo := New(graph.NewMemoryClient())
	if _, err := repo.MergeUser(context.Background(), domain.User{}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestRepository_MergeTransaction(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	mem.PushWriteResult(graph.Result{Records: []graph.Record{
		{"transaction": map[string]any{
			"id":        "t1",
			"amount":    150.75,
			"timestamp": int64(1700000000000),
			"ip":        "1.1.1.1",
			"metadata":  `{"channel":"web"}`,
		}},
	}})

	tx := domain.Transaction{
		ID:        "t1",
		Amount:    150.75,
		Timestamp: 1700000000000,
		IP:        "1.1.1.1",
		Metadata:  map[string]any{"channel": "web"},
	}

	stored, err := repo.MergeTransaction(context.Background(), tx, domain.Parties{SenderID: "u1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 write query, got %d", len(calls))
	}
	call := calls[0]
	if call.Params["senderId"] != "u1" {
		t.Errorf("senderId mismatch: got %v", call.Params["senderId"])
	}
	if call.Params["receiverId"] != nil {
		t.Errorf("blank receiver should be sent as null, got %v", call.Params["receiverId"])
	}
	if call.Params["metadata"] != `{"channel":"web"}` {
		t.Errorf("metadata should be stored as JSON, got %v", call.Params["metadata"])
	}
	if !strings.Contains(call.Query, "OPTIONAL MATCH (sender:User") {
		t.Errorf("missing users must be optional: %s", call.Query)
	}

	if stored.Metadata["channel"] != "web" {
		t.Errorf("expected decoded metadata, got %+v", stored.Metadata)
	}
	if stored.Timestamp != 1700000000000 {
		t.Errorf("timestamp mismatch: got %d", stored.Timestamp)
	}
}

func TestRepository_FindByAttribute(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{"id": "t2"},
		{"id": "t3"},
	}})

	refs, err := repo.FindByAttribute(context.Background(), domain.AttributeQuery{
		Label:     domain.LabelTransaction,
		Attribute: domain.AttributeIP,
		Value:     "1.1.1.1",
		ExcludeID: "t1",
		Limit:     50,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(refs) != 2 || refs[0] != domain.TransactionRef("t2") {
		t.Fatalf("unexpected refs %+v", refs)
	}

	call := mem.ReadCalls()[0]
	if !strings.Contains(call.Query, "MATCH (o:Transaction)") || !strings.Contains(call.Query, "o.ip = $value") {
		t.Errorf("unexpected query: %s", call.Query)
	}
	if call.Params["limit"] != int64(50) {
		t.Errorf("expected limit 50, got %v", call.Params["limit"])
	}
	if call.Params["excludeId"] != "t1" {
		t.Errorf("expected excludeId t1, got %v", call.Params["excludeId"])
	}
}

func TestRepository_FindByAttributeRejectsUnknownAttribute(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	_, err := repo.FindByAttribute(context.Background(), domain.AttributeQuery{
		Label:     domain.LabelTransaction,
		Attribute: "id} DETACH DELETE o //",
		Value:     "x",
		Limit:     1,
	})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if len(mem.ReadCalls()) != 0 {
		t.Fatal("no query should reach the client")
	}
}

func TestRepository_MergeDirectedEdges(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	mem.PushWriteResult(graph.Result{Records: []graph.Record{{"edges": int64(2)}}})

	n, err := repo.MergeDirectedEdges(context.Background(), domain.TransactionRef("t3"), domain.EdgeSameDevice,
		[]domain.NodeRef{domain.TransactionRef("t1"), domain.TransactionRef("t2")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 edges, got %d", n)
	}

	call := mem.WriteCalls()[0]
	if !strings.Contains(call.Query, "MERGE (from)-[:SAME_DEVICE]->(to)") {
		t.Errorf("unexpected query: %s", call.Query)
	}
	if !strings.Contains(call.Query, "to.id <> from.id") {
		t.Errorf("self loops must be filtered: %s", call.Query)
	}
	ids, ok := call.Params["toIds"].([]string)
	if !ok || len(ids) != 2 {
		t.Fatalf("expected 2 target ids, got %T %v", call.Params["toIds"], call.Params["toIds"])
	}
}

func TestRepository_MergeDirectedEdgesNoTargets(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	n, err := repo.MergeDirectedEdges(context.Background(), domain.TransactionRef("t1"), domain.EdgeSameIP, nil)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got %d, %v", n, err)
	}
	if len(mem.WriteCalls()) != 0 {
		t.Fatal("expected no write for empty target list")
	}
}

func TestRepository_FetchUserNeighborhood(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{
			"user":           map[string]any{"id": "u1", "email": "a@x.com"},
			"transactions":   []any{map[string]any{"id": "t1", "amount": 10.0}},
			"counterparties": []any{map[string]any{"id": "u2"}},
			"shared":         []any{map[string]any{"id": "u3", "email": "a@x.com"}},
		},
	}})

	hood, err := repo.FetchNeighborhood(context.Background(), domain.UserRef("u1"), domain.HopSpec{SharedLimit: 50})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	userHood, ok := hood.(*domain.UserNeighborhood)
	if !ok {
		t.Fatalf("expected user neighborhood, got %T", hood)
	}
	if len(userHood.Transactions) != 1 || userHood.Transactions[0].ID != "t1" {
		t.Errorf("unexpected transactions %+v", userHood.Transactions)
	}
	if len(userHood.Counterparties) != 1 || userHood.Counterparties[0].ID != "u2" {
		t.Errorf("unexpected counterparties %+v", userHood.Counterparties)
	}
	if len(userHood.SharedUsers) != 1 || userHood.SharedUsers[0].ID != "u3" {
		t.Errorf("unexpected shared users %+v", userHood.SharedUsers)
	}

	call := mem.ReadCalls()[0]
	if call.Params["sharedLimit"] != int64(50) {
		t.Errorf("expected shared limit 50, got %v", call.Params["sharedLimit"])
	}
}

func TestRepository_FetchTransactionNeighborhood(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{
			"transaction": map[string]any{"id": "t2", "ip": "1.1.1.1"},
			"senders":     []any{map[string]any{"id": "u2"}},
			"receivers":   []any{map[string]any{"id": "u1"}},
			"linked":      []any{map[string]any{"id": "t1", "ip": "1.1.1.1"}},
		},
	}})

	hood, err := repo.FetchNeighborhood(context.Background(), domain.TransactionRef("t2"), domain.HopSpec{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	txHood, ok := hood.(*domain.TransactionNeighborhood)
	if !ok {
		t.Fatalf("expected transaction neighborhood, got %T", hood)
	}
	if len(txHood.Linked) != 1 || txHood.Linked[0].ID != "t1" {
		t.Errorf("unexpected linked %+v", txHood.Linked)
	}

	call := mem.ReadCalls()[0]
	if !strings.Contains(call.Query, "(t)-[:SAME_IP|SAME_DEVICE]-(other:Transaction)") {
		t.Errorf("linked transactions must be matched in either direction: %s", call.Query)
	}
}

func TestRepository_FetchNeighborhoodMissingSeed(t *testing.T) {
	repo := New(graph.NewMemoryClient())

	hood, err := repo.FetchNeighborhood(context.Background(), domain.UserRef("nope"), domain.HopSpec{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hood != nil {
		t.Fatalf("expected nil neighborhood, got %+v", hood)
	}
}

func TestRepository_ListUsers(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{"user": map[string]any{"id": "u1", "name": "Jane"}},
		{"user": map[string]any{"id": "u2", "name": "John"}},
	}})

	users, err := repo.ListUsers(context.Background(), domain.Page{Limit: 10, Skip: 5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	call := mem.ReadCalls()[0]
	if !strings.Contains(call.Query, "ORDER BY u.id ASC") {
		t.Errorf("unexpected ordering in list users query: %s", call.Query)
	}
	if call.Params["skip"] != int64(5) || call.Params["limit"] != int64(10) {
		t.Errorf("unexpected paging params %v", call.Params)
	}
}

func TestRepository_ListTransactions(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{"transaction": map[string]any{"id": "t1", "amount": 100.0, "timestamp": int64(2)}},
	}})

	txs, err := repo.ListTransactions(context.Background(), domain.Page{Limit: 10})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(txs) != 1 || txs[0].Amount != 100.0 {
		t.Fatalf("unexpected transactions %+v", txs)
	}

	call := mem.ReadCalls()[0]
	if !strings.Contains(call.Query, "ORDER BY t.timestamp DESC") {
		t.Errorf("unexpected ordering in list transactions query: %s", call.Query)
	}
}

func TestRepository_Counts(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	mem.PushReadResult(graph.Result{Records: []graph.Record{{"total": int64(8)}}})
	mem.PushReadResult(graph.Result{Records: []graph.Record{{"total": int64(12)}}})

	users, err := repo.CountUsers(context.Background())
	if err != nil || users != 8 {
		t.Fatalf("expected 8 users, got %d, %v", users, err)
	}
	txs, err := repo.CountTransactions(context.Background())
	if err != nil || txs != 12 {
		t.Fatalf("expected 12 transactions, got %d, %v", txs, err)
	}
}

func TestRepository_WrapsClientErrors(t *testing.T) {
	boom := errors.New("connection refused")
	repo := New(graph.NewMemoryClient().WithError(boom))

	_, err := repo.ExportTransactions(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
	if !strings.Contains(err.Error(), "export transactions") {
		t.Errorf("expected operation in message, got %q", err.Error())
	}
}
