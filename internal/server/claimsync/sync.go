// Package claimsync keeps a user's custom auth claims consistent with the
// administrator-editable role document stored under the userRoles collection.
// It reacts to row-level write events delivered over a PostgreSQL notification
// channel and mirrors roles/isManager into the users table, revoking refresh
// tokens so the change reaches the client on its next login.
package claimsync

import (
	"context"
	"database/sql"
	"errors"

	"recordkeeper/internal/common"
	"recordkeeper/internal/logging"
	"recordkeeper/internal/server/models"
	"recordkeeper/internal/server/repositories/repomanager"
)

// Event is one write to a role document: the document ID (which is the user's
// ID) plus the before and after images. A nil After means the document was
// deleted, a nil Before means it was created.
type Event struct {
	ID     string         `json:"id"`
	Before map[string]any `json:"before"`
	After  map[string]any `json:"after"`
}

// Synchronizer applies role-document write events to the auth system.
type Synchronizer struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func NewSynchronizer(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *Synchronizer {
	return &Synchronizer{db: db, rm: rm, logger: logger.With("component", "claimsync")}
}

// HandleRoleWrite mirrors one role-document write into the user's custom
// claims. Delivery is at-least-once; the before/after comparison and the
// current-claims comparison make redundant deliveries no-ops. Every path
// returns nil: a failure here must never leave the event source stuck, so
// errors are logged and swallowed.
func (s *Synchronizer) HandleRoleWrite(ctx context.Context, event Event) error {
	log := s.logger.With("user_id", event.ID)

	// Document deleted: the orphaned claims are left as-is.
	if event.After == nil {
		log.Debug(ctx, "role document deleted, skipping")
		return nil
	}

	before := models.RoleAssignmentFromDocument(event.Before)
	after := models.RoleAssignmentFromDocument(event.After)

	// Unrelated-field write: roles and isManager unchanged.
	if rolesEqual(before.Roles, after.Roles) && before.IsManager == after.IsManager {
		log.Debug(ctx, "roles unchanged, skipping")
		return nil
	}

	effective := after.Roles
	if len(effective) == 0 {
		effective = []string{common.DefaultRole}
	}
	target := models.CustomClaims{Roles: effective, IsManager: after.IsManager}

	users := s.rm.Users(s.db)

	current, err := users.GetClaims(ctx, event.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Warn(ctx, "user no longer exists, skipping claims update")
			return nil
		}
		log.Error(ctx, "error reading current claims", "error", err)
		return nil
	}

	// Idempotence guard: a spurious trigger or a rewrite with identical
	// effective values must not cost a claims write and a revocation.
	if current.Equal(target) {
		log.Debug(ctx, "claims already up to date, skipping")
		return nil
	}

	if err := users.SetClaims(ctx, event.ID, target); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Warn(ctx, "user no longer exists, skipping claims update")
			return nil
		}
		log.Error(ctx, "error setting claims", "error", err)
		return nil
	}

	revoked, err := s.rm.RefreshTokens(s.db).DeleteAllForUser(ctx, event.ID)
	if err != nil {
		log.Error(ctx, "error revoking refresh tokens", "error", err)
		return nil
	}

	log.Info(ctx, "claims updated",
		"roles", target.Roles, "is_manager", target.IsManager, "tokens_revoked", revoked)
	return nil
}

func rolesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
