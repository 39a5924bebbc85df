package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dcclinic/clinic/internal/platform/apperr"
	"github.com/dcclinic/clinic/internal/platform/db"
)

// RevenueRecorder adds settled revenue to the monthly statistics.
type RevenueRecorder interface {
	RecordRevenue(ctx context.Context, at time.Time, amount float64) error
}

type Service struct {
	payments PaymentRepository
	tx       db.TxRunner
	revenue  RevenueRecorder
}

func NewService(payments PaymentRepository, tx db.TxRunner, revenue RevenueRecorder) *Service {
	return &Service{payments: payments, tx: tx, revenue: revenue}
}

// OpenPayment creates the pending payment for a freshly issued prescription.
// The prescribing workflow calls this inside its transaction.
func (s *Service) OpenPayment(ctx context.Context, patientID, prescriptionID uuid.UUID) error {
	return s.payments.Create(ctx, &Payment{
		PatientID:      patientID,
		PrescriptionID: prescriptionID,
	})
}

// Settle completes a payment. The subtotal comes from the prescribed line
// snapshot, the total adds the service fee, and the subtotal is booked as
// revenue against the appointment's month. All of it commits or none of it
// does. The fee stays out of the revenue statistics. Settling an already
// settled payment overwrites fee, total and method, and books the revenue
// again.
func (s *Service) Settle(ctx context.Context, paymentID, nurseID uuid.UUID, fee float64, method string) (*Payment, error) {
	if fee < 0 {
		return nil, apperr.E(apperr.KindValidation, "fee must not be negative")
	}
	if method == "" {
		return nil, apperr.E(apperr.KindValidation, "payment method is required")
	}

	var settled *Payment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}

		items, err := s.payments.LineItems(ctx, p.PrescriptionID)
		if err != nil {
			return err
		}
		at, err := s.payments.PrescribedAt(ctx, p.PrescriptionID)
		if err != nil {
			return err
		}

		p.NurseID = &nurseID
		p.Subtotal = Subtotal(items)
		p.Fee = fee
		p.Total = p.Subtotal + fee
		p.Method = method
		if err := s.payments.Settle(ctx, p); err != nil {
			return err
		}
		if err := s.revenue.RecordRevenue(ctx, at, p.Subtotal); err != nil {
			return err
		}

		p.Settled = true
		now := time.Now()
		p.SettledAt = &now
		settled = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *Service) GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Payment, error) {
	return s.payments.GetByPrescription(ctx, prescriptionID)
}

func (s *Service) ListUnsettled(ctx context.Context, limit, offset int) ([]*Payment, int, error) {
	return s.payments.ListUnsettled(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return s.payments.ListByPatient(ctx, patientID, limit, offset)
}
