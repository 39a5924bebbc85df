// Package prescribing issues prescriptions. Issuing is the pivotal workflow
// of the clinic: it checks and decrements stock, snapshots prices, marks the
// appointment examined, opens a pending payment, and counts the visit, all
// inside one transaction.
package prescribing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Prescription is a doctor's conclusion for one examined appointment,
// together with the prescribed medicine lines.
type Prescription struct {
	ID            uuid.UUID `json:"id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Symptoms      string    `json:"symptoms"`
	Conclusion    string    `json:"conclusion"`
	CreatedAt     time.Time `json:"created_at"`

	Items []*PrescribedMedicine `json:"prescribed_medicines"`
}

// PrescribedMedicine is one line of a prescription. UnitPrice is the catalog
// price copied at issue time; later catalog changes never alter an issued
// prescription.
type PrescribedMedicine struct {
	ID                uuid.UUID `json:"id"`
	PrescriptionID    uuid.UUID `json:"prescription_id"`
	MedicineID        uuid.UUID `json:"medicine_id"`
	MedicineName      string    `json:"medicine_name"`
	Instructions      string    `json:"instructions"`
	UsageInstructions string    `json:"usage_instructions"`
	Quantity          int       `json:"quantity"`
	Days              int       `json:"days"`
	UnitPrice         float64   `json:"unit_price"`
}

// HistoryEntry is one visit in a patient's medical history.
type HistoryEntry struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	DoctorID       uuid.UUID `json:"doctor_id"`
	AppointmentID  uuid.UUID `json:"appointment_id"`
	PrescriptionID uuid.UUID `json:"prescription_id"`
	Symptoms       string    `json:"symptoms"`
	Conclusion     string    `json:"conclusion"`
	CreatedAt      time.Time `json:"created_at"`
}

// IssueLine is one requested medicine line. Instructions left empty fall back
// to the medicine's catalog defaults.
type IssueLine struct {
	MedicineID        uuid.UUID `json:"medicine"`
	Quantity          int       `json:"quantity"`
	Days              int       `json:"days"`
	Instructions      string    `json:"instructions"`
	UsageInstructions string    `json:"usage_instructions"`
}

// IssueInput is the doctor's full request to issue a prescription.
type IssueInput struct {
	AppointmentID uuid.UUID   `json:"appointment"`
	Symptoms      string      `json:"symptoms"`
	Conclusion    string      `json:"conclusion"`
	Lines         []IssueLine `json:"prescribed_medicines"`
}

func (in *IssueInput) Validate() error {
	if in.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment is required")
	}
	if in.Conclusion == "" {
		return fmt.Errorf("conclusion is required")
	}
	for i, l := range in.Lines {
		if l.MedicineID == uuid.Nil {
			return fmt.Errorf("line %d: medicine is required", i)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("line %d: quantity must be positive", i)
		}
		if l.Days < 0 {
			return fmt.Errorf("line %d: days must not be negative", i)
		}
	}
	return nil
}
