package user

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nutrilab/nutrilab/internal/platform/apperr"
	"github.com/nutrilab/nutrilab/internal/platform/auth"
	"github.com/nutrilab/nutrilab/internal/platform/clerk"
	"github.com/nutrilab/nutrilab/internal/platform/db"
)

const eventUserCreated = "user.created"

// RoleSyncer pushes role changes to the identity provider.
type RoleSyncer interface {
	UpdateUserRole(ctx context.Context, userID string, meta clerk.PublicMetadata) error
}

type Recorder interface {
	RoleChanged(role string)
}

type Service struct {
	users   UserRepository
	tx      db.TxBeginner
	syncer  RoleSyncer
	metrics Recorder
	logger  zerolog.Logger
}

// NewService wires the directory. tx may be nil, in which case role updates
// are not wrapped in a transaction.
func NewService(users UserRepository, tx db.TxBeginner, syncer RoleSyncer, metrics Recorder, logger zerolog.Logger) *Service {
	return &Service{users: users, tx: tx, syncer: syncer, metrics: metrics, logger: logger}
}

// HandleEvent applies a verified identity-provider webhook. Only
// user.created changes state; everything else is acknowledged.
func (s *Service) HandleEvent(ctx context.Context, ev *ClerkEvent) (*WebhookResult, error) {
	if ev.Type != eventUserCreated {
		return &WebhookResult{Status: "acknowledged", Event: ev.Type, Message: "event received but not processed"}, nil
	}

	v := apperr.ValidationErrors{}
	if strings.TrimSpace(ev.Data.ID) == "" {
		v.Add("data.id", "is required")
	}
	email := strings.TrimSpace(ev.Data.Email())
	if email == "" {
		v.Add("data.email_addresses", "an email address is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	u := &User{ID: ev.Data.ID, Email: email, Role: auth.RolePatient}
	if name := ev.Data.FullName(); name != "" {
		u.Name = &name
	}
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	if !created {
		s.logger.Info().Str("user_id", u.ID).Msg("user.created replayed, user already present")
		return &WebhookResult{Status: "success", Event: ev.Type, Message: "user already exists"}, nil
	}
	s.logger.Info().Str("user_id", u.ID).Msg("user created from webhook")
	return &WebhookResult{Status: "success", Event: ev.Type, Message: "user added", User: u}, nil
}

// Me returns the caller's identity and stored profile, if any.
func (s *Service) Me(ctx context.Context, id *auth.Identity) (*Me, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	u, err := s.users.GetByID(ctx, id.ID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return &Me{Identity: id}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Me{Identity: id, Profile: u}, nil
}

func (s *Service) List(ctx context.Context, id *auth.Identity, limit, offset int) ([]*User, int, error) {
	if id == nil || id.ID == "" {
		return nil, 0, apperr.Unauthenticated()
	}
	if !auth.Permit(id, auth.RoleAdmin) {
		return nil, 0, apperr.Forbidden("admin role required")
	}
	return s.users.List(ctx, limit, offset)
}

// SetRole stores a new role and pushes it to the identity provider. The
// local write is rolled back when the provider call fails, so the two never
// disagree.
func (s *Service) SetRole(ctx context.Context, id *auth.Identity, userID string, in *SetRoleInput) (*User, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	if !auth.Permit(id, auth.RoleAdmin) {
		return nil, apperr.Forbidden("admin role required")
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Validation("role", "must be one of admin, moderator, doctor, patient")
	}
	var nutriCode *string
	if code := strings.TrimSpace(in.NutriCode); code != "" && role == auth.RoleDoctor {
		nutriCode = &code
	}

	var updated *User
	err = s.inTx(ctx, func(ctx context.Context) error {
		u, err := s.users.UpdateRole(ctx, userID, role, nutriCode)
		if err != nil {
			return err
		}
		if s.syncer != nil {
			meta := clerk.PublicMetadata{Role: string(role)}
			if nutriCode != nil {
				meta.NutriCode = *nutriCode
			}
			if err := s.syncer.UpdateUserRole(ctx, userID, meta); err != nil {
				return apperr.Upstream("sync role to identity provider", err)
			}
		}
		updated = u
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Store("update user role", err)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RoleChanged(string(role))
	}
	s.logger.Info().Str("user_id", userID).Str("role", string(role)).Str("by", id.ID).Msg("user role changed")
	return updated, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.tx, fn)
}
