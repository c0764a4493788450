package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dkarlovs/voucherd/internal/migrations"
	"github.com/dkarlovs/voucherd/internal/repositories/pricing"
	"github.com/dkarlovs/voucherd/internal/repositories/profiles"
	"github.com/dkarlovs/voucherd/internal/repositories/transactions"
	"github.com/dkarlovs/voucherd/internal/repositories/users"
	"github.com/dkarlovs/voucherd/internal/repositories/vouchers"
	"github.com/dkarlovs/voucherd/internal/storex"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Vouchers(db *storex.Executor) vouchers.Repository {
	return vouchers.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Users(db *storex.Executor) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Profiles(db *storex.Executor) profiles.Repository {
	return profiles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Pricing(db *storex.Executor) pricing.Repository {
	return pricing.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Transactions(db *storex.Executor) transactions.Repository {
	return transactions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
