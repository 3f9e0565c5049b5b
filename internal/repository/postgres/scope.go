package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/laimu/erptracker/internal/tenant"
)

// scopeClause returns the WHERE fragment restricting column to the scope's
// tenant, appending its argument to args so placeholders keep counting
// from whatever the caller already bound.
//
// The tenant id is always bound as a parameter, never formatted into the
// SQL, and the $N index comes from len(args) so callers can put their own
// arguments first (id = $1) and still compose. An unassigned profile gets
// FALSE: dropping the clause would show it every tenant.
func scopeClause(scope tenant.Scope, column string, args []any) (string, []any) {
	switch {
	case scope.Unscoped():
		return "TRUE", args
	case scope.Unassigned():
		return "FALSE", args
	default:
		args = append(args, *scope.OrganizationID())
		return fmt.Sprintf("%s = $%d", column, len(args)), args
	}
}

// sharedScopeClause is scopeClause with global rows (NULL organization)
// visible to every signed-in scope.
func sharedScopeClause(scope tenant.Scope, column string, args []any) (string, []any) {
	switch {
	case scope.Unscoped():
		return "TRUE", args
	case scope.Role() == "":
		return "FALSE", args
	case scope.Unassigned():
		return column + " IS NULL", args
	default:
		args = append(args, *scope.OrganizationID())
		return fmt.Sprintf("(%s IS NULL OR %s = $%d)", column, column, len(args)), args
	}
}

// inTx runs fn in a transaction, committing when fn returns nil.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// writeOrganization is the tenant a new row belongs to: the scope's tenant,
// or the row's own when an unscoped super admin writes on behalf of one.
func writeOrganization(scope tenant.Scope, requested *string) *string {
	if org := scope.OrganizationID(); org != nil {
		return org
	}
	return requested
}
