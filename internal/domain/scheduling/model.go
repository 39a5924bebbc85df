// Package scheduling manages appointment booking with a per-day capacity cap,
// nurse confirmation, and the examined flag that gates prescription issue.
package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment is a patient's booking. DoctorID and NurseID are assigned at
// confirmation time. Examined flips exactly once, when a prescription is
// issued for the appointment.
type Appointment struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      *uuid.UUID `json:"doctor_id,omitempty"`
	NurseID       *uuid.UUID `json:"nurse_id,omitempty"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Reason        string     `json:"reason,omitempty"`
	Confirmed     bool       `json:"confirmed"`
	Examined      bool       `json:"examined"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (a *Appointment) Validate() error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.ScheduledTime.IsZero() {
		return fmt.Errorf("scheduled_time is required")
	}
	return nil
}

// Day returns the appointment's calendar day in UTC, which keys the daily
// capacity counter.
func (a *Appointment) Day() time.Time {
	return a.ScheduledTime.UTC().Truncate(24 * time.Hour)
}
