package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/dcclinic/clinic/internal/platform/apperr"
)

type Service struct {
	medicines MedicineRepository
}

func NewService(medicines MedicineRepository) *Service {
	return &Service{medicines: medicines}
}

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if err := m.Validate(); err != nil {
		return apperr.E(apperr.KindValidation, "%s", err.Error())
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) GetMedicineByName(ctx context.Context, name string) (*Medicine, error) {
	return s.medicines.GetByName(ctx, name)
}

// UpdateMedicine changes catalog fields only. Stock moves through
// TryDecrement and Restock so the ledger stays consistent under concurrency.
func (s *Service) UpdateMedicine(ctx context.Context, m *Medicine) error {
	if err := m.Validate(); err != nil {
		return apperr.E(apperr.KindValidation, "%s", err.Error())
	}
	return s.medicines.Update(ctx, m)
}

func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	return s.medicines.Delete(ctx, id)
}

func (s *Service) SearchMedicines(ctx context.Context, name string, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.Search(ctx, name, limit, offset)
}

func (s *Service) Decrement(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return apperr.E(apperr.KindValidation, "quantity must be positive, got %d", qty)
	}
	return s.medicines.TryDecrement(ctx, id, qty)
}

func (s *Service) Restock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return apperr.E(apperr.KindValidation, "quantity must be positive, got %d", qty)
	}
	return s.medicines.Restock(ctx, id, qty)
}
