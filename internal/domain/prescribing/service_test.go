package prescribing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dcclinic/clinic/internal/platform/apperr"
)

type mockPrescriptionRepo struct {
	prescriptions map[uuid.UUID]*Prescription
	history       []*HistoryEntry
}

func newMockPrescriptionRepo() *mockPrescriptionRepo {
	return &mockPrescriptionRepo{prescriptions: make(map[uuid.UUID]*Prescription)}
}

func (m *mockPrescriptionRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	for _, item := range p.Items {
		item.ID = uuid.New()
		item.PrescriptionID = p.ID
	}
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "prescription not found")
	}
	return p, nil
}

func (m *mockPrescriptionRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var items []*Prescription
	for _, p := range m.prescriptions {
		if p.DoctorID == doctorID {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

func (m *mockPrescriptionRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var items []*Prescription
	for _, p := range m.prescriptions {
		if p.PatientID == patientID {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

func (m *mockPrescriptionRepo) AddHistory(_ context.Context, h *HistoryEntry) error {
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	m.history = append(m.history, h)
	return nil
}

func (m *mockPrescriptionRepo) HistoryByPatient(_ context.Context, patientID uuid.UUID, from, to *time.Time, limit, offset int) ([]*HistoryEntry, int, error) {
	var items []*HistoryEntry
	for _, h := range m.history {
		if h.PatientID != patientID {
			continue
		}
		if from != nil && h.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !h.CreatedAt.Before(*to) {
			continue
		}
		items = append(items, h)
	}
	return items, len(items), nil
}

type mockAppointments struct {
	appointments map[uuid.UUID]*AppointmentInfo
}

func (m *mockAppointments) Appointment(_ context.Context, id uuid.UUID) (*AppointmentInfo, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "appointment not found")
	}
	return a, nil
}

func (m *mockAppointments) MarkExamined(_ context.Context, id uuid.UUID) error {
	a, ok := m.appointments[id]
	if !ok {
		return apperr.E(apperr.KindNotFound, "appointment not found")
	}
	if a.Examined {
		return apperr.E(apperr.KindAlreadyExamined, "appointment already examined")
	}
	a.Examined = true
	return nil
}

type mockMedicines struct {
	catalog map[uuid.UUID]*MedicineInfo
	stock   map[uuid.UUID]int
}

func (m *mockMedicines) Medicine(_ context.Context, id uuid.UUID) (*MedicineInfo, error) {
	med, ok := m.catalog[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "medicine not found")
	}
	return med, nil
}

func (m *mockMedicines) Decrement(_ context.Context, id uuid.UUID, qty int) error {
	if _, ok := m.catalog[id]; !ok {
		return apperr.E(apperr.KindNotFound, "medicine not found")
	}
	if m.stock[id] < qty {
		return apperr.E(apperr.KindInsufficientStock,
			"insufficient stock: requested %d, available %d", qty, m.stock[id])
	}
	m.stock[id] -= qty
	return nil
}

type openedPayment struct {
	patientID      uuid.UUID
	prescriptionID uuid.UUID
}

type mockPayments struct {
	opened []openedPayment
}

func (m *mockPayments) OpenPayment(_ context.Context, patientID, prescriptionID uuid.UUID) error {
	m.opened = append(m.opened, openedPayment{patientID, prescriptionID})
	return nil
}

type mockVisits struct {
	recorded []time.Time
}

func (m *mockVisits) RecordVisit(_ context.Context, at time.Time) error {
	m.recorded = append(m.recorded, at)
	return nil
}

// snapshotTx imitates a database transaction over the in-memory mocks: when
// the function fails, every mutation is rolled back to the snapshot.
type snapshotTx struct {
	repo     *mockPrescriptionRepo
	appts    *mockAppointments
	meds     *mockMedicines
	payments *mockPayments
	visits   *mockVisits
}

func (s *snapshotTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	prescriptions := make(map[uuid.UUID]*Prescription, len(s.repo.prescriptions))
	for k, v := range s.repo.prescriptions {
		prescriptions[k] = v
	}
	history := append([]*HistoryEntry(nil), s.repo.history...)
	examined := make(map[uuid.UUID]bool, len(s.appts.appointments))
	for k, v := range s.appts.appointments {
		examined[k] = v.Examined
	}
	stock := make(map[uuid.UUID]int, len(s.meds.stock))
	for k, v := range s.meds.stock {
		stock[k] = v
	}
	opened := append([]openedPayment(nil), s.payments.opened...)
	visits := append([]time.Time(nil), s.visits.recorded...)

	err := fn(ctx)
	if err != nil {
		s.repo.prescriptions = prescriptions
		s.repo.history = history
		for k, v := range examined {
			s.appts.appointments[k].Examined = v
		}
		s.meds.stock = stock
		s.payments.opened = opened
		s.visits.recorded = visits
	}
	return err
}

type fixture struct {
	svc      *Service
	repo     *mockPrescriptionRepo
	appts    *mockAppointments
	meds     *mockMedicines
	payments *mockPayments
	visits   *mockVisits

	doctorID  uuid.UUID
	patientID uuid.UUID
	apptID    uuid.UUID
	aspirin   uuid.UUID
	ibuprofen uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMockPrescriptionRepo(),
		payments:  &mockPayments{},
		visits:    &mockVisits{},
		doctorID:  uuid.New(),
		patientID: uuid.New(),
		apptID:    uuid.New(),
		aspirin:   uuid.New(),
		ibuprofen: uuid.New(),
	}
	doctorID := f.doctorID
	f.appts = &mockAppointments{appointments: map[uuid.UUID]*AppointmentInfo{
		f.apptID: {
			ID:            f.apptID,
			PatientID:     f.patientID,
			DoctorID:      &doctorID,
			ScheduledTime: time.Now(),
			Confirmed:     true,
		},
	}}
	f.meds = &mockMedicines{
		catalog: map[uuid.UUID]*MedicineInfo{
			f.aspirin: {ID: f.aspirin, Name: "aspirin", Price: 2.50,
				Instructions: "after meals", UsageInstructions: "twice daily"},
			f.ibuprofen: {ID: f.ibuprofen, Name: "ibuprofen", Price: 4.00,
				Instructions: "with water", UsageInstructions: "once daily"},
		},
		stock: map[uuid.UUID]int{f.aspirin: 10, f.ibuprofen: 5},
	}
	tx := &snapshotTx{repo: f.repo, appts: f.appts, meds: f.meds, payments: f.payments, visits: f.visits}
	f.svc = NewService(f.repo, tx, f.appts, f.meds, f.payments, f.visits)
	return f
}

func (f *fixture) issueInput() *IssueInput {
	return &IssueInput{
		AppointmentID: f.apptID,
		Symptoms:      "fever",
		Conclusion:    "flu",
		Lines: []IssueLine{
			{MedicineID: f.aspirin, Quantity: 4, Days: 2},
			{MedicineID: f.ibuprofen, Quantity: 2, Days: 1, Instructions: "before bed"},
		},
	}
}

func TestIssue(t *testing.T) {
	f := newFixture()

	p, err := f.svc.Issue(context.Background(), f.doctorID, f.issueInput())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if p.PatientID != f.patientID {
		t.Errorf("expected patient %s, got %s", f.patientID, p.PatientID)
	}
	if len(p.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(p.Items))
	}

	if f.meds.stock[f.aspirin] != 6 {
		t.Errorf("expected aspirin stock 6, got %d", f.meds.stock[f.aspirin])
	}
	if f.meds.stock[f.ibuprofen] != 3 {
		t.Errorf("expected ibuprofen stock 3, got %d", f.meds.stock[f.ibuprofen])
	}

	if !f.appts.appointments[f.apptID].Examined {
		t.Error("expected appointment marked examined")
	}
	if len(f.payments.opened) != 1 {
		t.Fatalf("expected 1 pending payment, got %d", len(f.payments.opened))
	}
	if f.payments.opened[0].prescriptionID != p.ID {
		t.Error("pending payment should reference the prescription")
	}
	if len(f.visits.recorded) != 1 {
		t.Errorf("expected 1 visit recorded, got %d", len(f.visits.recorded))
	}
	if len(f.repo.history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(f.repo.history))
	}
	if f.repo.history[0].PrescriptionID != p.ID {
		t.Error("history entry should reference the prescription")
	}
}

func TestIssue_PriceSnapshot(t *testing.T) {
	f := newFixture()

	p, err := f.svc.Issue(context.Background(), f.doctorID, f.issueInput())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if p.Items[0].UnitPrice != 2.50 {
		t.Errorf("expected snapshotted unit price 2.50, got %f", p.Items[0].UnitPrice)
	}

	// A later catalog price change must not affect the issued prescription.
	f.meds.catalog[f.aspirin].Price = 99.0
	got, _ := f.svc.Get(context.Background(), p.ID)
	if got.Items[0].UnitPrice != 2.50 {
		t.Errorf("unit price changed after catalog update: %f", got.Items[0].UnitPrice)
	}
}

func TestIssue_InstructionFallback(t *testing.T) {
	f := newFixture()

	p, err := f.svc.Issue(context.Background(), f.doctorID, f.issueInput())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// First line gave no instructions: catalog defaults apply.
	if p.Items[0].Instructions != "after meals" || p.Items[0].UsageInstructions != "twice daily" {
		t.Errorf("expected catalog defaults on line 0, got %q / %q",
			p.Items[0].Instructions, p.Items[0].UsageInstructions)
	}
	// Second line overrode instructions but not usage.
	if p.Items[1].Instructions != "before bed" {
		t.Errorf("expected override on line 1, got %q", p.Items[1].Instructions)
	}
	if p.Items[1].UsageInstructions != "once daily" {
		t.Errorf("expected catalog usage default on line 1, got %q", p.Items[1].UsageInstructions)
	}
}

func TestIssue_InsufficientStockRollsBackEverything(t *testing.T) {
	f := newFixture()
	in := f.issueInput()
	in.Lines[1].Quantity = 50 // more ibuprofen than stocked

	_, err := f.svc.Issue(context.Background(), f.doctorID, in)
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if f.meds.stock[f.aspirin] != 10 {
		t.Errorf("aspirin decrement must roll back, stock is %d", f.meds.stock[f.aspirin])
	}
	if len(f.repo.prescriptions) != 0 {
		t.Error("no prescription may persist on failure")
	}
	if len(f.repo.history) != 0 {
		t.Error("no history entry may persist on failure")
	}
	if f.appts.appointments[f.apptID].Examined {
		t.Error("appointment must stay unexamined on failure")
	}
	if len(f.payments.opened) != 0 {
		t.Error("no payment may be opened on failure")
	}
	if len(f.visits.recorded) != 0 {
		t.Error("no visit may be recorded on failure")
	}
}

func TestIssue_AlreadyExamined(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Issue(context.Background(), f.doctorID, f.issueInput()); err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}

	_, err := f.svc.Issue(context.Background(), f.doctorID, f.issueInput())
	if !apperr.Is(err, apperr.KindAlreadyExamined) {
		t.Fatalf("expected already examined, got %v", err)
	}
	if len(f.repo.prescriptions) != 1 {
		t.Errorf("expected exactly 1 prescription, got %d", len(f.repo.prescriptions))
	}
}

func TestIssue_UnassignedUnconfirmedAppointment(t *testing.T) {
	f := newFixture()
	f.appts.appointments[f.apptID].DoctorID = nil
	f.appts.appointments[f.apptID].Confirmed = false

	// Walk-in flow: the prescribing doctor need not be assigned to the
	// appointment beforehand, and confirmation is not a prerequisite.
	p, err := f.svc.Issue(context.Background(), f.doctorID, f.issueInput())
	if err != nil {
		t.Fatalf("Issue failed for unassigned unconfirmed appointment: %v", err)
	}
	if p.DoctorID != f.doctorID {
		t.Errorf("prescription must carry the issuing doctor, got %s", p.DoctorID)
	}
	if !f.appts.appointments[f.apptID].Examined {
		t.Error("appointment must be marked examined")
	}
}

func TestIssue_UnknownMedicine(t *testing.T) {
	f := newFixture()
	in := f.issueInput()
	in.Lines[0].MedicineID = uuid.New()

	_, err := f.svc.Issue(context.Background(), f.doctorID, in)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIssue_InputValidation(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name   string
		mutate func(*IssueInput)
	}{
		{"missing appointment", func(in *IssueInput) { in.AppointmentID = uuid.Nil }},
		{"missing conclusion", func(in *IssueInput) { in.Conclusion = "" }},
		{"zero quantity", func(in *IssueInput) { in.Lines[0].Quantity = 0 }},
		{"negative days", func(in *IssueInput) { in.Lines[0].Days = -1 }},
		{"nil medicine", func(in *IssueInput) { in.Lines[0].MedicineID = uuid.Nil }},
	}
	for _, tc := range cases {
		in := f.issueInput()
		tc.mutate(in)
		if _, err := f.svc.Issue(context.Background(), f.doctorID, in); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestHistory_RangeValidation(t *testing.T) {
	f := newFixture()
	from := time.Now()
	to := from.Add(-24 * time.Hour)
	_, _, err := f.svc.History(context.Background(), f.patientID, &from, &to, 20, 0)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHistory_AfterIssue(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Issue(context.Background(), f.doctorID, f.issueInput()); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	items, total, err := f.svc.History(context.Background(), f.patientID, nil, nil, 20, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 history entry, got %d", total)
	}
	if items[0].Conclusion != "flu" {
		t.Errorf("unexpected conclusion: %s", items[0].Conclusion)
	}
}
