package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/auth"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/portal"
	"github.com/laimu/erptracker/internal/tenant"
	"go.uber.org/zap"
)

// DefaultSelectionTTL is how long a requested delete waits for confirmation.
const DefaultSelectionTTL = 5 * time.Minute

// Selection kinds. Each kind holds at most one pending id per session, so a
// ticket and a module can await confirmation at the same time.
const (
	selectTicket   = "ticket"
	selectAction   = "action"
	selectModule   = "module"
	selectTimeline = "timeline"
	selectUser     = "user"
)

// pendingDeletes is the two-step delete shared by every handler that asks
// before removing a record. A request stores the id against the caller's
// session token; a confirm from the same session deletes it.
//
// The selection is read, not taken, on confirm and is cleared only once the
// delete went through. A store failure leaves it in place so the caller can
// retry the confirm without selecting again. The TTL bounds how long a
// forgotten selection can later be confirmed by accident.
type pendingDeletes struct {
	selections auth.Selections
	ttl        time.Duration
	logger     *zap.Logger
}

func newPendingDeletes(selections auth.Selections, logger *zap.Logger) pendingDeletes {
	return pendingDeletes{selections: selections, ttl: DefaultSelectionTTL, logger: logger}
}

// request records id as the pending delete of kind. The caller has already
// checked that id exists in scope. A newer request replaces an older one.
func (p pendingDeletes) request(c *gin.Context, kind, id string) {
	if err := p.selections.Select(c.Request.Context(), middleware.GetTokenID(c), kind, id, p.ttl); err != nil {
		p.logger.Error("failed to store delete selection", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not start delete, please retry"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"pending_delete": id, "kind": kind, "expires_in": int(p.ttl.Seconds())})
}

// confirm deletes the pending id of kind with del. del reports errors in
// the form respondError understands.
func (p pendingDeletes) confirm(c *gin.Context, kind string, del func(ctx context.Context, id string) error) {
	ctx := c.Request.Context()
	jti := middleware.GetTokenID(c)

	id, err := p.selections.Selected(ctx, jti, kind)
	if err != nil {
		p.logger.Error("failed to read delete selection", zap.String("kind", kind), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not confirm delete, please retry"})
		return
	}
	if id == "" {
		respondError(c, p.logger, portal.ErrNothingSelected)
		return
	}

	if err := del(ctx, id); err != nil {
		respondError(c, p.logger, err)
		return
	}

	if err := p.selections.Clear(ctx, jti, kind); err != nil {
		// The record is gone; a later confirm reports not found.
		p.logger.Warn("failed to clear delete selection", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
	}
	p.logger.Info("record deleted",
		zap.String("kind", kind),
		zap.String("id", id),
		zap.String("by", middleware.GetPrincipalID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (p pendingDeletes) cancel(c *gin.Context, kind string) {
	if err := p.selections.Clear(c.Request.Context(), middleware.GetTokenID(c), kind); err != nil {
		p.logger.Warn("failed to clear delete selection", zap.String("kind", kind), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

type scopedDelete func(ctx context.Context, scope tenant.Scope, id string) (bool, error)

// scopedDeleter binds a repository Delete to scope, reporting a store
// failure as RemoteWrite and a missing row as not found.
func scopedDeleter(scope tenant.Scope, what string, del scopedDelete) func(context.Context, string) error {
	return func(ctx context.Context, id string) error {
		found, err := del(ctx, scope, id)
		if err != nil {
			return apperr.RemoteWrite("delete "+what, err)
		}
		if !found {
			return notFound(what, id)
		}
		return nil
	}
}
