package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/dcclinic/clinic/internal/platform/apperr"
)

type mockProfileRepo struct {
	profiles map[uuid.UUID]*Profile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[uuid.UUID]*Profile)}
}

func (m *mockProfileRepo) Create(_ context.Context, p *Profile) error {
	p.ID = uuid.New()
	m.profiles[p.ID] = p
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "profile not found")
	}
	return p, nil
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (*Profile, error) {
	for _, p := range m.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, apperr.E(apperr.KindNotFound, "profile not found")
}

func (m *mockProfileRepo) Update(_ context.Context, p *Profile) error {
	m.profiles[p.ID] = p
	return nil
}

func (m *mockProfileRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := m.profiles[id]
	if !ok {
		return apperr.E(apperr.KindNotFound, "profile not found")
	}
	p.Active = false
	return nil
}

func (m *mockProfileRepo) ListByKind(_ context.Context, kind ProfileKind, limit, offset int) ([]*Profile, int, error) {
	var items []*Profile
	for _, p := range m.profiles {
		if p.Kind == kind && p.Active {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

func strPtr(s string) *string { return &s }

func TestCreateProfile_Doctor(t *testing.T) {
	svc := NewService(newMockProfileRepo())

	p := &Profile{
		UserID:     "user-1",
		Kind:       KindDoctor,
		FullName:   "Dr. Smith",
		Speciality: strPtr("cardiology"),
	}
	if err := svc.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	if !p.Active {
		t.Error("new profile should be active")
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
}

func TestCreateProfile_VariantFieldMismatch(t *testing.T) {
	svc := NewService(newMockProfileRepo())

	p := &Profile{
		UserID:   "user-1",
		Kind:     KindPatient,
		FullName: "Alice",
		Faculty:  strPtr("emergency"),
	}
	err := svc.CreateProfile(context.Background(), p)
	if err == nil {
		t.Fatal("expected validation error for faculty on patient profile")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error kind, got %v", apperr.KindOf(err))
	}
}

func TestCreateProfile_InvalidKind(t *testing.T) {
	svc := NewService(newMockProfileRepo())

	p := &Profile{UserID: "user-1", Kind: "wizard", FullName: "Merlin"}
	if err := svc.CreateProfile(context.Background(), p); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateProfile_KindImmutable(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewService(repo)

	p := &Profile{UserID: "user-1", Kind: KindNurse, FullName: "Nina", Faculty: strPtr("icu")}
	if err := svc.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	update := &Profile{ID: p.ID, Kind: KindDoctor, FullName: "Nina Updated", Faculty: strPtr("icu")}
	if err := svc.UpdateProfile(context.Background(), update); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), p.ID)
	if got.Kind != KindNurse {
		t.Errorf("kind should not change on update, got %s", got.Kind)
	}
	if got.FullName != "Nina Updated" {
		t.Errorf("full name should update, got %s", got.FullName)
	}
}

func TestGetByUserID(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewService(repo)

	p := &Profile{UserID: "sub-42", Kind: KindPatient, FullName: "Bob"}
	if err := svc.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	got, err := svc.GetByUserID(context.Background(), "sub-42")
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected profile %s, got %s", p.ID, got.ID)
	}

	if _, err := svc.GetByUserID(context.Background(), "nobody"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListByKind_InvalidKind(t *testing.T) {
	svc := NewService(newMockProfileRepo())
	if _, _, err := svc.ListByKind(context.Background(), "wizard", 20, 0); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
