package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Confirm(ctx context.Context, id, doctorID, nurseID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkExamined flips the examined flag. It returns KindAlreadyExamined
	// when the flag is already set, so an appointment can only be examined
	// once.
	MarkExamined(ctx context.Context, id uuid.UUID) error

	// ReserveDailySlot increments the booking counter for day, refusing with
	// KindCapacityExceeded once cap bookings exist. The check and increment
	// are a single atomic statement.
	ReserveDailySlot(ctx context.Context, day time.Time, cap int) error

	// ReleaseDailySlot gives a reserved slot back, used when a booking is
	// cancelled.
	ReleaseDailySlot(ctx context.Context, day time.Time) error

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListUnconfirmed(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
