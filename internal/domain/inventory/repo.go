package inventory

import (
	"context"

	"github.com/google/uuid"
)

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	GetByName(ctx context.Context, name string) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, name string, limit, offset int) ([]*Medicine, int, error)

	// TryDecrement atomically subtracts qty from the medicine's stock. It
	// returns KindNotFound when the medicine does not exist and
	// KindInsufficientStock when the remaining stock is below qty. The row is
	// never driven negative.
	TryDecrement(ctx context.Context, id uuid.UUID, qty int) error

	// Restock adds qty back to the medicine's stock.
	Restock(ctx context.Context, id uuid.UUID, qty int) error
}
