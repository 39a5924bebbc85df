package staff

import (
	"context"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListByKind(ctx context.Context, kind ProfileKind, limit, offset int) ([]*Profile, int, error)
}
