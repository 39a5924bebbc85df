package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dcclinic/clinic/internal/platform/apperr"
	"github.com/dcclinic/clinic/internal/platform/db"
)

// Notifier delivers templated email in the background. A nil Notifier
// disables notifications.
type Notifier interface {
	SendTemplateAsync(templateID string, data map[string]string, recipient string)
}

// PatientContact resolves a patient's name and email for notifications.
type PatientContact struct {
	FullName string
	Email    string
}

type PatientDirectory interface {
	PatientContact(ctx context.Context, patientID uuid.UUID) (*PatientContact, error)
}

type Service struct {
	appointments AppointmentRepository
	tx           db.TxRunner
	dailyCap     int
	notifier     Notifier
	patients     PatientDirectory
}

func NewService(appointments AppointmentRepository, tx db.TxRunner, dailyCap int) *Service {
	return &Service{
		appointments: appointments,
		tx:           tx,
		dailyCap:     dailyCap,
	}
}

// SetNotifier attaches an optional confirmation-email sender.
func (s *Service) SetNotifier(n Notifier, patients PatientDirectory) {
	s.notifier = n
	s.patients = patients
}

// Book creates an appointment. The slot reservation and the appointment row
// commit together: when the day is full, nothing is written.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if err := a.Validate(); err != nil {
		return apperr.E(apperr.KindValidation, "%s", err.Error())
	}
	if a.ScheduledTime.Before(time.Now()) {
		return apperr.E(apperr.KindValidation, "scheduled_time must be in the future")
	}
	a.Confirmed = false
	a.Examined = false

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.ReserveDailySlot(ctx, a.Day(), s.dailyCap); err != nil {
			return err
		}
		return s.appointments.Create(ctx, a)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// Confirm assigns the examining doctor and the confirming nurse, then emails
// the patient. The email is best-effort: a delivery failure never unwinds the
// confirmation.
func (s *Service) Confirm(ctx context.Context, id, doctorID, nurseID uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Confirmed {
		return nil, apperr.E(apperr.KindValidation, "appointment already confirmed")
	}
	if doctorID == uuid.Nil {
		return nil, apperr.E(apperr.KindValidation, "doctor_id is required")
	}

	if err := s.appointments.Confirm(ctx, id, doctorID, nurseID); err != nil {
		return nil, err
	}

	a, err = s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyConfirmed(ctx, a)
	return a, nil
}

func (s *Service) notifyConfirmed(ctx context.Context, a *Appointment) {
	if s.notifier == nil || s.patients == nil {
		return
	}
	contact, err := s.patients.PatientContact(ctx, a.PatientID)
	if err != nil || contact.Email == "" {
		return
	}
	s.notifier.SendTemplateAsync("appointment-confirmed", map[string]string{
		"patient_name": contact.FullName,
		"date":         a.ScheduledTime.Format("2006-01-02"),
		"time":         a.ScheduledTime.Format("15:04"),
	}, contact.Email)
}

// Cancel deletes an appointment and gives its day slot back. Only the owning
// patient may cancel, and an examined appointment is immutable.
func (s *Service) Cancel(ctx context.Context, id, requesterPatientID uuid.UUID) error {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.PatientID != requesterPatientID {
		return apperr.E(apperr.KindPermissionDenied, "only the booking patient may cancel")
	}
	if a.Examined {
		return apperr.E(apperr.KindAlreadyExamined, "appointment already examined")
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Delete(ctx, id); err != nil {
			return err
		}
		return s.appointments.ReleaseDailySlot(ctx, a.Day())
	})
}

// MarkExamined flips the examined flag exactly once. The prescription
// workflow calls this inside its transaction.
func (s *Service) MarkExamined(ctx context.Context, id uuid.UUID) error {
	return s.appointments.MarkExamined(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListUnconfirmed(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListUnconfirmed(ctx, limit, offset)
}

func (s *Service) ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListPendingByDoctor(ctx, doctorID, limit, offset)
}
