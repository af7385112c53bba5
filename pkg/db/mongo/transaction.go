package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "deskbook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

type TransactionFunc func(ctx mongo.SessionContext) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{client: client}
}

// ExecuteTransaction runs fn once in a multi-document transaction. An error from
// fn aborts it. Neither fn nor the commit is retried, so a transient label on
// the returned error is left for the caller to act on.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	if err := session.StartTransaction(); err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	sessCtx := mongo.NewSessionContext(ctx, session)
	if err := fn(sessCtx); err != nil {
		_ = session.AbortTransaction(context.WithoutCancel(ctx))
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	if err := session.CommitTransaction(sessCtx); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// WithTimeout bounds ctx by d unless ctx belongs to a session, where the
// transaction's own deadline governs every statement.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// IsTransient reports whether a driver error carries a retryable label or is a
// network or deadline failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel("TransientTransactionError") ||
			labeled.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}
