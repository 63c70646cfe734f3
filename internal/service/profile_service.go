package service

import (
	"context"
	"strings"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/repository/ports"
)

type ProfileService struct {
	store ports.LocalStore
	likes *LikeService
}

func NewProfileService(store ports.LocalStore, likes *LikeService) *ProfileService {
	return &ProfileService{store: store, likes: likes}
}

// Get assembles the profile screen: cached identity plus the liked count.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	name, err := s.value(ctx, ports.KeyUserName)
	if err != nil {
		return nil, err
	}
	email, err := s.value(ctx, ports.KeyUserEmail)
	if err != nil {
		return nil, err
	}
	count, err := s.likes.LikedCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen, err := s.WelcomeSeen(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{
		UserID:      userID,
		Name:        name,
		Email:       email,
		LikedCount:  count,
		WelcomeSeen: seen,
	}, nil
}

func (s *ProfileService) MarkWelcomeSeen(ctx context.Context) error {
	if err := s.store.Set(ctx, ports.KeyWelcomeSeen, "true"); err != nil {
		return asPersistence("mark welcome seen", err)
	}
	return nil
}

func (s *ProfileService) WelcomeSeen(ctx context.Context) (bool, error) {
	v, err := s.value(ctx, ports.KeyWelcomeSeen)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// Logout clears the cached identity. Likes and the welcome flag stay on the device.
func (s *ProfileService) Logout(ctx context.Context) error {
	for _, key := range []string{ports.KeyUserToken, ports.KeyUserName, ports.KeyUserEmail} {
		if err := s.store.Remove(ctx, key); err != nil {
			return asPersistence("logout", err)
		}
	}
	return nil
}

func (s *ProfileService) value(ctx context.Context, key string) (string, error) {
	v, _, err := s.store.Get(ctx, key)
	if err != nil {
		return "", asPersistence("read "+key, err)
	}
	return strings.TrimSpace(v), nil
}
