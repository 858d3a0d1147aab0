package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devYoryet/user-final/internal/identity"
	"github.com/devYoryet/user-final/internal/logger"
	"github.com/devYoryet/user-final/internal/utils"
)

// Reconciliation outcomes reported to the observability hook.
const (
	OutcomeFound   = "found"
	OutcomeLinked  = "linked"
	OutcomeCreated = "created"
)

// ReconciliationEvent describes the outcome of a single reconciliation.
type ReconciliationEvent struct {
	Outcome  string
	UserID   uuid.UUID
	Subject  string
	Email    string
	Provider string
	At       time.Time
}

// Hook receives per-call reconciliation outcomes. Implementations must be
// best-effort; the engine does not fail a reconciliation because a hook
// could not record it.
type Hook interface {
	RecordReconciliation(ctx context.Context, ev ReconciliationEvent)
}

// SalonDirectory is the resource-ownership collaborator consulted by the
// has-salon pass-through. It lives outside this service.
type SalonDirectory interface {
	HasSalon(ctx context.Context, ownerID uuid.UUID) (bool, error)
}

// Service is the reconciliation engine: it resolves a normalized
// identity onto exactly one canonical user record, creating or
// backfilling that record when needed. It holds no state between calls;
// the store's uniqueness constraints are the only serialization point,
// so concurrent callers are safe.
type Service struct {
	store  Store
	salons SalonDirectory
	hook   Hook
}

// NewService builds the engine. salons and hook may be nil: a nil salon
// directory answers "no salon", a nil hook records nothing.
func NewService(store Store, salons SalonDirectory, hook Hook) *Service {
	return &Service{
		store:  store,
		salons: salons,
		hook:   hook,
	}
}

// Reconcile finds, links, or creates the user for the given identity.
// It is idempotent: repeating the same identity always lands on the same
// record. Reconciling an existing user never changes that user's role;
// role changes go through the explicit upgrade operations only.
func (s *Service) Reconcile(ctx context.Context, id *identity.Identity) (*User, error) {
	if id == nil || (id.Subject == "" && id.Email == "") {
		return nil, ErrNoIdentityKey
	}

	// 1. Subject lookup: the fast path, no write.
	if id.Subject != "" {
		u, err := s.store.FindByExternalSubjectID(ctx, id.Subject)
		if err == nil {
			s.emit(ctx, OutcomeFound, u, id)
			return u, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	// 2. Email lookup. Synthesized placeholder addresses identify nobody,
	// so they never participate in linking.
	if id.Email != "" && !identity.IsPlaceholderEmail(id.Email) {
		u, err := s.store.FindByEmail(ctx, id.Email)
		switch {
		case err == nil:
			return s.link(ctx, u, id)
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	return s.create(ctx, id)
}

// link backfills the external subject on a record that was previously
// known only by email. A record already linked to a different subject is
// a conflict and is never overwritten.
func (s *Service) link(ctx context.Context, u *User, id *identity.Identity) (*User, error) {
	if id.Subject == "" || u.ExternalSubjectID == id.Subject {
		s.emit(ctx, OutcomeFound, u, id)
		return u, nil
	}

	if u.ExternalSubjectID != "" {
		logger.Warn("subject conflict on email match", map[string]any{
			"email":    u.Email,
			"existing": u.ExternalSubjectID,
			"incoming": id.Subject,
		})
		return nil, &SubjectConflictError{
			Email:    u.Email,
			Existing: u.ExternalSubjectID,
			Incoming: id.Subject,
		}
	}

	u.ExternalSubjectID = id.Subject
	u.UpdatedAt = time.Now()

	linked, err := s.store.Update(ctx, u)
	if err != nil {
		// A unique-constraint collision on the backfill means a concurrent
		// request just linked or created this subject on another row.
		// Subject identity wins; return that row instead of the race.
		var dup *DuplicateError
		if errors.As(err, &dup) {
			winner, ferr := s.store.FindByExternalSubjectID(ctx, id.Subject)
			if ferr == nil {
				s.emit(ctx, OutcomeFound, winner, id)
				return winner, nil
			}
			if !errors.Is(ferr, ErrNotFound) {
				return nil, ferr
			}
		}
		return nil, err
	}

	logger.Info("linked existing user to external subject", map[string]any{
		"user_id": linked.ID.String(),
		"subject": id.Subject,
	})
	s.emit(ctx, OutcomeLinked, linked, id)
	return linked, nil
}

func (s *Service) create(ctx context.Context, id *identity.Identity) (*User, error) {
	email := id.Email
	if email == "" {
		// Subject-only identity; the unique email column still needs a value.
		email = id.Subject + "@" + s.providerOf(id) + ".local"
	}

	username := id.Email
	if username == "" {
		username = s.providerOf(id) + "_" + utils.RandomString(8)
	}

	fullName := id.DisplayName
	if fullName == "" {
		fullName = deriveDisplayName(email, id.Username, id.Subject)
	}

	now := time.Now()
	u := &User{
		FullName:          fullName,
		Username:          username,
		Email:             email,
		Phone:             "",
		Role:              id.Role,
		ExternalSubjectID: id.Subject,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.store.Insert(ctx, u)
	if err == nil {
		logger.Info("created user", map[string]any{
			"user_id": created.ID.String(),
			"subject": created.ExternalSubjectID,
			"role":    string(created.Role),
		})
		s.emit(ctx, OutcomeCreated, created, id)
		return created, nil
	}

	// A unique-constraint collision here means a concurrent request just
	// created this identity. Re-read and return that row instead of
	// surfacing the race.
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return s.recoverFromRace(ctx, id, err)
	}
	return nil, err
}

func (s *Service) recoverFromRace(ctx context.Context, id *identity.Identity, insertErr error) (*User, error) {
	if id.Subject != "" {
		u, err := s.store.FindByExternalSubjectID(ctx, id.Subject)
		if err == nil {
			s.emit(ctx, OutcomeFound, u, id)
			return u, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	// The collision proves the row exists, so a placeholder email is a
	// usable key on this path.
	if id.Email != "" {
		u, err := s.store.FindByEmail(ctx, id.Email)
		if err == nil {
			if id.Subject != "" && u.ExternalSubjectID != "" && u.ExternalSubjectID != id.Subject {
				return nil, &SubjectConflictError{
					Email:    u.Email,
					Existing: u.ExternalSubjectID,
					Incoming: id.Subject,
				}
			}
			s.emit(ctx, OutcomeFound, u, id)
			return u, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	return nil, insertErr
}

// UpgradeToSalonOwner sets the user's role to SALON_OWNER. Idempotent:
// upgrading an already-elevated user succeeds and stays elevated.
// Nothing in this service ever downgrades away from SALON_OWNER.
func (s *Service) UpgradeToSalonOwner(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.upgrade(ctx, u)
}

// UpgradeToSalonOwnerBySubject is the same upgrade keyed by the external
// subject id instead of the local user id.
func (s *Service) UpgradeToSalonOwnerBySubject(ctx context.Context, subject string) (*User, error) {
	u, err := s.store.FindByExternalSubjectID(ctx, subject)
	if err != nil {
		return nil, err
	}
	return s.upgrade(ctx, u)
}

func (s *Service) upgrade(ctx context.Context, u *User) (*User, error) {
	u.Role = identity.RoleSalonOwner
	u.UpdatedAt = time.Now()

	upgraded, err := s.store.Update(ctx, u)
	if err != nil {
		return nil, err
	}

	logger.Info("upgraded user to salon owner", map[string]any{
		"user_id": upgraded.ID.String(),
	})
	return upgraded, nil
}

func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.store.FindByID(ctx, userID)
}

func (s *Service) GetBySubject(ctx context.Context, subject string) (*User, error) {
	return s.store.FindByExternalSubjectID(ctx, subject)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.FindByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.store.List(ctx)
}

// HasExistingSalon asks the salon directory whether the user already
// owns a salon. Without a directory configured the answer is false.
func (s *Service) HasExistingSalon(ctx context.Context, userID uuid.UUID) (bool, error) {
	if s.salons == nil {
		return false, nil
	}
	return s.salons.HasSalon(ctx, userID)
}

// HasExistingSalonBySubject resolves the subject first; an unknown
// subject owns nothing.
func (s *Service) HasExistingSalonBySubject(ctx context.Context, subject string) (bool, error) {
	u, err := s.store.FindByExternalSubjectID(ctx, subject)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.HasExistingSalon(ctx, u.ID)
}

func (s *Service) emit(ctx context.Context, outcome string, u *User, id *identity.Identity) {
	if s.hook == nil {
		return
	}
	s.hook.RecordReconciliation(ctx, ReconciliationEvent{
		Outcome:  outcome,
		UserID:   u.ID,
		Subject:  id.Subject,
		Email:    u.Email,
		Provider: id.Provider,
		At:       time.Now(),
	})
}

func (s *Service) providerOf(id *identity.Identity) string {
	if id.Provider != "" {
		return id.Provider
	}
	return identity.ProviderCognito
}

// deriveDisplayName builds a human-friendly name: the local part of a
// real email, else a username that is not itself a generated
// placeholder, else a stub from the subject.
func deriveDisplayName(email, username, subject string) string {
	if email != "" && !identity.IsPlaceholderEmail(email) {
		return strings.SplitN(email, "@", 2)[0]
	}
	if username != "" && !isGeneratedUsername(username) {
		return username
	}
	if len(subject) > 8 {
		subject = subject[:8]
	}
	return "User " + subject
}

// isGeneratedUsername reports whether a username was synthesized for an
// email-less identity rather than chosen by the user. Legacy records
// carry the old untagged "user_" prefix.
func isGeneratedUsername(username string) bool {
	return strings.HasPrefix(username, identity.ProviderCognito+"_") ||
		strings.HasPrefix(username, identity.ProviderKeycloak+"_") ||
		strings.HasPrefix(username, "user_")
}
