package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vanshika/fintrace/internal/domain"
)

// UpsertUser creates or overwrites a user node. A missing id is generated.
func (s *RelationshipService) UpsertUser(ctx context.Context, input UserInput) (domain.User, error) {
	if err := inputValidate.Struct(input); err != nil {
		return domain.User{}, invalidInput(err)
	}

	id := input.resolvedID()
	if id == "" {
		id = s.newID()
	}

	user := domain.User{
		ID:             id,
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Address:        input.Address,
		PaymentMethods: input.PaymentMethods,
	}

	start := time.Now()
	stored, err := s.store.MergeUser(ctx, user)
	s.metrics.ObserveStore("merge_user", start)
	if err != nil {
		return domain.User{}, wrapOp("upsert user", err)
	}
	s.metrics.Upsert(string(domain.LabelUser))
	return stored, nil
}

// CreateTransaction inserts or overwrites a transaction node, attaches it to
// whichever of its parties exist, then runs the linkage passes. The node and
// party edges commit together; linkage runs afterwards and may fail on its
// own, leaving the node in place.
func (s *RelationshipService) CreateTransaction(ctx context.Context, input TransactionInput) (domain.Transaction, error) {
	tx, _, err := s.createTransaction(ctx, input, s.linker)
	return tx, err
}

func (s *RelationshipService) createTransaction(ctx context.Context, input TransactionInput, linker *LinkageEngine) (domain.Transaction, LinkReport, error) {
	if err := inputValidate.Struct(input); err != nil {
		return domain.Transaction{}, LinkReport{}, invalidInput(err)
	}

	tx := domain.Transaction{
		ID:        normalizeID(input.ID),
		Amount:    input.Amount,
		Timestamp: input.Timestamp,
		IP:        input.IP,
		DeviceID:  input.DeviceID,
		Metadata:  input.Metadata,
	}
	if tx.ID == "" {
		tx.ID = s.newID()
	}
	if tx.Timestamp == 0 {
		tx.Timestamp = s.nowFn().UnixMilli()
	}
	parties := domain.Parties{
		SenderID:   normalizeID(input.SenderID),
		ReceiverID: normalizeID(input.ReceiverID),
	}

	start := time.Now()
	stored, err := s.store.MergeTransaction(ctx, tx, parties)
	s.metrics.ObserveStore("merge_transaction", start)
	if err != nil {
		return domain.Transaction{}, LinkReport{}, wrapOp("create transaction", err)
	}
	s.metrics.Upsert(string(domain.LabelTransaction))

	report, err := linker.Link(ctx, stored)
	if err != nil {
		return stored, report, wrapOp("link transaction", fmt.Errorf("transaction %s: %w", stored.ID, err))
	}
	return stored, report, nil
}
