// Package payment settles prescriptions. A pending payment is opened when a
// prescription is issued; a nurse later settles it by pricing the line-item
// snapshot plus an examination fee.
package payment

import (
	"time"

	"github.com/google/uuid"
)

// Payment is the bill for one prescription. It starts pending with zero
// amounts; settling it again overwrites the previous fee and method.
type Payment struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	PrescriptionID uuid.UUID  `json:"prescription_id"`
	NurseID        *uuid.UUID `json:"nurse_id,omitempty"`
	Subtotal       float64    `json:"subtotal"`
	Fee            float64    `json:"fee"`
	Total          float64    `json:"total"`
	Method         string     `json:"payment_method,omitempty"`
	Settled        bool       `json:"settled"`
	CreatedAt      time.Time  `json:"created_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
}

// LineItem is the priced slice of a prescription line used to compute the
// subtotal. UnitPrice is the snapshot taken at prescribe time.
type LineItem struct {
	UnitPrice float64
	Quantity  int
}

// Subtotal sums unit price times quantity over all lines.
func Subtotal(items []LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.UnitPrice * float64(item.Quantity)
	}
	return sum
}
