package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubTx satisfies pgx.Tx so transaction plumbing can be tested without a
// database.
type stubTx struct{}

func (stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (stubTx) Commit(ctx context.Context) error          { return nil }
func (stubTx) Rollback(ctx context.Context) error        { return nil }
func (stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (stubTx) Conn() *pgx.Conn                                               { return nil }

func TestTxFromContext_Nil(t *testing.T) {
	tx := TxFromContext(context.Background())
	if tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, "not-a-tx")
	tx := TxFromContext(ctx)
	if tx != nil {
		t.Error("expected nil when context value is wrong type")
	}
}

func TestTxFromContext_WithTx(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, pgx.Tx(stubTx{}))
	if TxFromContext(ctx) == nil {
		t.Error("expected stored tx back from context")
	}
}

func TestWithTx_NilPool(t *testing.T) {
	err := WithTx(context.Background(), nil, func(ctx context.Context) error {
		t.Error("fn should not run without a pool")
		return nil
	})
	if err == nil {
		t.Fatal("expected error when pool is nil")
	}
	if err.Error() != "no database connection in context" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

func TestWithTx_JoinsExistingTransaction(t *testing.T) {
	// When a transaction is already in the context, WithTx must run fn
	// against that context without opening a nested transaction. The nil
	// pool would make any Begin attempt fail, so reaching fn proves the
	// existing transaction was reused.
	ctx := context.WithValue(context.Background(), DBTxKey, pgx.Tx(stubTx{}))

	ran := false
	err := WithTx(ctx, nil, func(inner context.Context) error {
		ran = true
		if TxFromContext(inner) == nil {
			t.Error("expected transaction to remain in context")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Error("fn did not run")
	}
}
