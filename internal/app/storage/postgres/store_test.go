package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/trade"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetUser(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetBalance(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT agent_id, competition_id, token, chain, amount, updated_at\s+FROM balances`).
		WithArgs("a1", "c1", "USDT", "neo").
		WillReturnRows(sqlmock.NewRows([]string{"agent_id", "competition_id", "token", "chain", "amount", "updated_at"}).
			AddRow("a1", "c1", "USDT", "neo", 42.5, now))

	b, err := store.GetBalance(context.Background(), "a1", "c1", "USDT", "neo")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if b.Amount != 42.5 || b.Token != "USDT" {
		t.Fatalf("unexpected balance: %#v", b)
	}
}

func TestApplyTradeCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT amount FROM balances[\s\S]+FOR UPDATE`).
		WithArgs("a1", "c1", "USDT", "neo").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(100.0))
	mock.ExpectExec(`UPDATE balances SET amount = amount - \$5`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO balances`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO trades`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	executed, err := store.ApplyTrade(context.Background(), trade.Trade{
		AgentID: "a1", CompetitionID: "c1",
		FromToken: "USDT", FromChain: "neo", FromAmount: 40,
		ToToken: "NEO", ToChain: "neo", ToAmount: 2,
	})
	if err != nil {
		t.Fatalf("apply trade: %v", err)
	}
	if executed.Status != trade.StatusExecuted || executed.ID == "" {
		t.Fatalf("unexpected trade: %#v", executed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestApplyTradeInsufficientRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT amount FROM balances[\s\S]+FOR UPDATE`).
		WithArgs("a1", "c1", "USDT", "neo").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(10.0))
	mock.ExpectRollback()

	_, err := store.ApplyTrade(context.Background(), trade.Trade{
		AgentID: "a1", CompetitionID: "c1",
		FromToken: "USDT", FromChain: "neo", FromAmount: 40,
		ToToken: "NEO", ToChain: "neo", ToAmount: 2,
	})
	if !errors.Is(err, storage.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCountTradesSince(t *testing.T) {
	store, mock := newMockStore(t)

	since := time.Now().UTC().Add(-time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM trades`)).
		WithArgs("a1", "c1", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.CountTradesSince(context.Background(), "a1", "c1", since)
	if err != nil || count != 7 {
		t.Fatalf("count = %d, err = %v", count, err)
	}
}
