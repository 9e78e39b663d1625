package service

import (
	"context"

	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/repo"
)

// ProfileService exposes the public profile the identity provider stores per
// user. Read-only; registration and credentials live outside this engine.
type ProfileService interface {
	GetPublicProfile(ctx context.Context, address string) (*model.User, error)
}

type profileService struct {
	users repo.UserRepository
}

func NewProfileService(users repo.UserRepository) ProfileService {
	return &profileService{users: users}
}

func (s *profileService) GetPublicProfile(ctx context.Context, address string) (*model.User, error) {
	return s.users.GetByAddress(ctx, address)
}
