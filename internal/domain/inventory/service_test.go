package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/dcclinic/clinic/internal/platform/apperr"
)

type mockMedicineRepo struct {
	medicines map[uuid.UUID]*Medicine
}

func newMockMedicineRepo() *mockMedicineRepo {
	return &mockMedicineRepo{medicines: make(map[uuid.UUID]*Medicine)}
}

func (m *mockMedicineRepo) Create(_ context.Context, med *Medicine) error {
	med.ID = uuid.New()
	m.medicines[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	med, ok := m.medicines[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "medicine not found")
	}
	return med, nil
}

func (m *mockMedicineRepo) GetByName(_ context.Context, name string) (*Medicine, error) {
	for _, med := range m.medicines {
		if med.Name == name {
			return med, nil
		}
	}
	return nil, apperr.E(apperr.KindNotFound, "medicine not found")
}

func (m *mockMedicineRepo) Update(_ context.Context, med *Medicine) error {
	if _, ok := m.medicines[med.ID]; !ok {
		return apperr.E(apperr.KindNotFound, "medicine not found")
	}
	m.medicines[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.medicines[id]; !ok {
		return apperr.E(apperr.KindNotFound, "medicine not found")
	}
	delete(m.medicines, id)
	return nil
}

func (m *mockMedicineRepo) Search(_ context.Context, name string, limit, offset int) ([]*Medicine, int, error) {
	var items []*Medicine
	for _, med := range m.medicines {
		items = append(items, med)
	}
	return items, len(items), nil
}

func (m *mockMedicineRepo) TryDecrement(_ context.Context, id uuid.UUID, qty int) error {
	med, ok := m.medicines[id]
	if !ok {
		return apperr.E(apperr.KindNotFound, "medicine not found")
	}
	if med.Quantity < qty {
		return apperr.E(apperr.KindInsufficientStock,
			"insufficient stock: requested %d, available %d", qty, med.Quantity)
	}
	med.Quantity -= qty
	return nil
}

func (m *mockMedicineRepo) Restock(_ context.Context, id uuid.UUID, qty int) error {
	med, ok := m.medicines[id]
	if !ok {
		return apperr.E(apperr.KindNotFound, "medicine not found")
	}
	med.Quantity += qty
	return nil
}

func seedMedicine(t *testing.T, svc *Service, name string, price float64, qty int) *Medicine {
	t.Helper()
	m := &Medicine{Name: name, Price: price, Unit: "pill", Quantity: qty}
	if err := svc.CreateMedicine(context.Background(), m); err != nil {
		t.Fatalf("seed medicine %s: %v", name, err)
	}
	return m
}

func TestCreateMedicine_Validation(t *testing.T) {
	svc := NewService(newMockMedicineRepo())

	cases := []struct {
		name string
		m    Medicine
	}{
		{"missing name", Medicine{Unit: "pill"}},
		{"negative price", Medicine{Name: "x", Unit: "pill", Price: -1}},
		{"negative quantity", Medicine{Name: "x", Unit: "pill", Quantity: -5}},
		{"missing unit", Medicine{Name: "x"}},
	}
	for _, tc := range cases {
		if err := svc.CreateMedicine(context.Background(), &tc.m); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestDecrement(t *testing.T) {
	repo := newMockMedicineRepo()
	svc := NewService(repo)
	m := seedMedicine(t, svc, "aspirin", 2.50, 10)

	if err := svc.Decrement(context.Background(), m.ID, 4); err != nil {
		t.Fatalf("Decrement failed: %v", err)
	}
	got, _ := svc.GetMedicine(context.Background(), m.ID)
	if got.Quantity != 6 {
		t.Errorf("expected quantity 6, got %d", got.Quantity)
	}
}

func TestDecrement_InsufficientStock(t *testing.T) {
	repo := newMockMedicineRepo()
	svc := NewService(repo)
	m := seedMedicine(t, svc, "aspirin", 2.50, 3)

	err := svc.Decrement(context.Background(), m.ID, 5)
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	got, _ := svc.GetMedicine(context.Background(), m.ID)
	if got.Quantity != 3 {
		t.Errorf("failed decrement must not change stock, got %d", got.Quantity)
	}
}

func TestDecrement_NotFound(t *testing.T) {
	svc := NewService(newMockMedicineRepo())
	if err := svc.Decrement(context.Background(), uuid.New(), 1); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDecrement_NonPositiveQuantity(t *testing.T) {
	repo := newMockMedicineRepo()
	svc := NewService(repo)
	m := seedMedicine(t, svc, "aspirin", 2.50, 3)

	if err := svc.Decrement(context.Background(), m.ID, 0); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if err := svc.Decrement(context.Background(), m.ID, -2); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative quantity, got %v", err)
	}
}

func TestRestock(t *testing.T) {
	repo := newMockMedicineRepo()
	svc := NewService(repo)
	m := seedMedicine(t, svc, "aspirin", 2.50, 3)

	if err := svc.Restock(context.Background(), m.ID, 7); err != nil {
		t.Fatalf("Restock failed: %v", err)
	}
	got, _ := svc.GetMedicine(context.Background(), m.ID)
	if got.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", got.Quantity)
	}
}
