package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/event-logger/internal/auth"
	"github.com/sakif/event-logger/internal/model"
	"github.com/sakif/event-logger/internal/repository"
)

// IdentityService maps verified token identities to user records.
//
//	auth.Middleware → IdentityService.Resolve → UserRepository.Upsert
type IdentityService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewIdentityService(users repository.UserRepository, logger *slog.Logger) *IdentityService {
	return &IdentityService{users: users, logger: logger}
}

var _ auth.IdentityResolver = (*IdentityService)(nil)

// Resolve upserts the user keyed by the identity's subject. A first sight
// creates the row; later calls refresh the display name only, so calling it
// twice with the same identity leaves exactly one user.
func (s *IdentityService) Resolve(ctx context.Context, id auth.Identity) (*model.User, error) {
	if !id.Complete() {
		return nil, fmt.Errorf("service/identity: identity needs subject, email and name")
	}

	user := &model.User{
		GoogleID: id.Subject,
		Email:    id.Email,
		Name:     id.Name,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/identity: upserting user (googleID=%s): %w", id.Subject, err)
	}

	s.logger.Debug("user resolved",
		slog.String("userID", user.ID),
		slog.String("googleID", user.GoogleID),
	)
	return user, nil
}

// Owner returns the user a record belongs to. A record whose owner is gone
// is a data fault, so the lookup fails instead of returning nil.
func (s *IdentityService) Owner(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.logger, "loading owner", err, slog.String("userID", userID))
	}
	return user, nil
}
