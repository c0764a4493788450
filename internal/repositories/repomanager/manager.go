// Package repomanager bundles repository construction and schema migration
// behind one interface so startup code depends on a single seam.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkarlovs/voucherd/internal/repositories/pricing"
	"github.com/dkarlovs/voucherd/internal/repositories/profiles"
	"github.com/dkarlovs/voucherd/internal/repositories/transactions"
	"github.com/dkarlovs/voucherd/internal/repositories/users"
	"github.com/dkarlovs/voucherd/internal/repositories/vouchers"
	"github.com/dkarlovs/voucherd/internal/storex"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Vouchers(db *storex.Executor) vouchers.Repository
	Users(db *storex.Executor) users.Repository
	Profiles(db *storex.Executor) profiles.Repository
	Pricing(db *storex.Executor) pricing.Repository
	Transactions(db *storex.Executor) transactions.Repository
}
