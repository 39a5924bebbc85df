package staff

import (
	"context"

	"github.com/google/uuid"

	"github.com/dcclinic/clinic/internal/platform/apperr"
)

type Service struct {
	profiles ProfileRepository
}

func NewService(profiles ProfileRepository) *Service {
	return &Service{profiles: profiles}
}

func (s *Service) CreateProfile(ctx context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return apperr.E(apperr.KindValidation, "%s", err.Error())
	}
	p.Active = true
	return s.profiles.Create(ctx, p)
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// GetByUserID resolves the profile owned by an authenticated user.
func (s *Service) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, p *Profile) error {
	existing, err := s.profiles.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	// The variant is fixed at creation.
	p.Kind = existing.Kind
	p.UserID = existing.UserID
	if err := p.Validate(); err != nil {
		return apperr.E(apperr.KindValidation, "%s", err.Error())
	}
	return s.profiles.Update(ctx, p)
}

func (s *Service) DeactivateProfile(ctx context.Context, id uuid.UUID) error {
	return s.profiles.Deactivate(ctx, id)
}

func (s *Service) ListByKind(ctx context.Context, kind ProfileKind, limit, offset int) ([]*Profile, int, error) {
	if !validKinds[kind] {
		return nil, 0, apperr.E(apperr.KindValidation, "invalid kind: %s", kind)
	}
	return s.profiles.ListByKind(ctx, kind, limit, offset)
}
