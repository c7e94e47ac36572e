package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// SetupTestDB starts a Postgres container, waits for it, applies the schema
// and returns the pool plus a teardown func.
func SetupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()
	postgresC, err := tcpostgres.Run(ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("ewallet"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("secret"),
	)
	assert.NoError(t, err)

	dbURL, err := postgresC.ConnectionString(ctx, "sslmode=disable")
	assert.NoError(t, err)

	var pool *pgxpool.Pool
	for i := 0; i < 20; i++ {
		pool, err = pgxpool.New(ctx, dbURL)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				break
			}
			pool.Close()
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "[testutil] Postgres did not become ready in time. Container logs:")
		logs, logErr := postgresC.Logs(ctx)
		if logErr == nil {
			io.Copy(os.Stderr, logs)
		} else {
			fmt.Fprintln(os.Stderr, "[testutil] Failed to get container logs:", logErr)
		}
	}
	assert.NoError(t, err, "Postgres did not become ready in time")

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(40) NOT NULL,
			email VARCHAR(100) NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_username_key UNIQUE (username),
			CONSTRAINT users_email_key UNIQUE (email)
		);
		CREATE TABLE IF NOT EXISTS wallets (
			id UUID PRIMARY KEY,
			user_id UUID UNIQUE REFERENCES users(id),
			owner_name VARCHAR(100) NOT NULL,
			balance DECIMAL(19, 4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			reference VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS wallet_transactions (
			id BIGSERIAL PRIMARY KEY,
			wallet_id UUID NOT NULL REFERENCES wallets(id),
			amount DECIMAL(19, 4) NOT NULL,
			type VARCHAR(16) NOT NULL CHECK (type IN ('RECHARGE', 'TRANSFER_DEBIT', 'TRANSFER_CREDIT')),
			description TEXT,
			reference VARCHAR(64) NOT NULL,
			balance_after DECIMAL(19, 4) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_wallet_transactions_wallet_created
			ON wallet_transactions(wallet_id, created_at DESC);
	`)
	assert.NoError(t, err)

	return pool, func() {
		pool.Close()
		postgresC.Terminate(ctx)
	}
}
