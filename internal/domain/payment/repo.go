package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Payment, error)

	// Settle writes the settlement amounts. Settling again overwrites the
	// previous fee, total and method.
	Settle(ctx context.Context, p *Payment) error

	// LineItems returns the priced prescription lines for subtotal
	// computation.
	LineItems(ctx context.Context, prescriptionID uuid.UUID) ([]LineItem, error)

	// PrescribedAt returns the scheduled time of the appointment the
	// prescription was issued against.
	PrescribedAt(ctx context.Context, prescriptionID uuid.UUID) (time.Time, error)

	ListUnsettled(ctx context.Context, limit, offset int) ([]*Payment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error)
}
