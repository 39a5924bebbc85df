package prescribing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dcclinic/clinic/internal/platform/apperr"
	"github.com/dcclinic/clinic/internal/platform/db"
)

// AppointmentInfo is the slice of an appointment the workflow needs.
type AppointmentInfo struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	DoctorID      *uuid.UUID
	ScheduledTime time.Time
	Confirmed     bool
	Examined      bool
}

// AppointmentGateway reads appointments and flips their examined flag.
type AppointmentGateway interface {
	Appointment(ctx context.Context, id uuid.UUID) (*AppointmentInfo, error)
	MarkExamined(ctx context.Context, id uuid.UUID) error
}

// MedicineInfo is the catalog data the workflow copies into prescription
// lines.
type MedicineInfo struct {
	ID                uuid.UUID
	Name              string
	Price             float64
	Instructions      string
	UsageInstructions string
}

// MedicineGateway resolves catalog entries and decrements stock.
type MedicineGateway interface {
	Medicine(ctx context.Context, id uuid.UUID) (*MedicineInfo, error)
	Decrement(ctx context.Context, id uuid.UUID, qty int) error
}

// PaymentOpener creates the pending payment that settlement later completes.
type PaymentOpener interface {
	OpenPayment(ctx context.Context, patientID, prescriptionID uuid.UUID) error
}

// VisitRecorder counts an examined patient in the monthly statistics.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, at time.Time) error
}

type Service struct {
	prescriptions PrescriptionRepository
	tx            db.TxRunner
	appointments  AppointmentGateway
	medicines     MedicineGateway
	payments      PaymentOpener
	visits        VisitRecorder
}

func NewService(
	prescriptions PrescriptionRepository,
	tx db.TxRunner,
	appointments AppointmentGateway,
	medicines MedicineGateway,
	payments PaymentOpener,
	visits VisitRecorder,
) *Service {
	return &Service{
		prescriptions: prescriptions,
		tx:            tx,
		appointments:  appointments,
		medicines:     medicines,
		payments:      payments,
		visits:        visits,
	}
}

// Issue runs the prescription workflow for one appointment. Every step joins
// one transaction: when any line is out of stock, or the appointment was
// already examined, nothing is written at all.
func (s *Service) Issue(ctx context.Context, doctorID uuid.UUID, in *IssueInput) (*Prescription, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.E(apperr.KindValidation, "%s", err.Error())
	}

	var p *Prescription
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.Appointment(ctx, in.AppointmentID)
		if err != nil {
			return err
		}
		if appt.Examined {
			return apperr.E(apperr.KindAlreadyExamined, "appointment already examined")
		}

		p = &Prescription{
			DoctorID:      doctorID,
			PatientID:     appt.PatientID,
			AppointmentID: appt.ID,
			Symptoms:      in.Symptoms,
			Conclusion:    in.Conclusion,
		}
		for _, line := range in.Lines {
			med, err := s.medicines.Medicine(ctx, line.MedicineID)
			if err != nil {
				return err
			}
			if err := s.medicines.Decrement(ctx, line.MedicineID, line.Quantity); err != nil {
				return err
			}

			instructions := line.Instructions
			if instructions == "" {
				instructions = med.Instructions
			}
			usage := line.UsageInstructions
			if usage == "" {
				usage = med.UsageInstructions
			}

			p.Items = append(p.Items, &PrescribedMedicine{
				MedicineID:        med.ID,
				MedicineName:      med.Name,
				Instructions:      instructions,
				UsageInstructions: usage,
				Quantity:          line.Quantity,
				Days:              line.Days,
				UnitPrice:         med.Price,
			})
		}

		if err := s.prescriptions.Create(ctx, p); err != nil {
			return err
		}
		if err := s.prescriptions.AddHistory(ctx, &HistoryEntry{
			PatientID:      p.PatientID,
			DoctorID:       p.DoctorID,
			AppointmentID:  p.AppointmentID,
			PrescriptionID: p.ID,
			Symptoms:       p.Symptoms,
			Conclusion:     p.Conclusion,
		}); err != nil {
			return err
		}
		if err := s.appointments.MarkExamined(ctx, appt.ID); err != nil {
			return err
		}
		if err := s.payments.OpenPayment(ctx, p.PatientID, p.ID); err != nil {
			return err
		}
		return s.visits.RecordVisit(ctx, appt.ScheduledTime)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID, from, to *time.Time, limit, offset int) ([]*HistoryEntry, int, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, 0, apperr.E(apperr.KindValidation, "history range end precedes start")
	}
	return s.prescriptions.HistoryByPatient(ctx, patientID, from, to, limit, offset)
}
