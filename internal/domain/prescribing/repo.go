package prescribing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PrescriptionRepository interface {
	// Create persists the prescription and all its lines.
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)

	AddHistory(ctx context.Context, h *HistoryEntry) error
	HistoryByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time, limit, offset int) ([]*HistoryEntry, int, error)
}
