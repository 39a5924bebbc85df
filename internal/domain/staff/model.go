// Package staff manages clinic user profiles. A profile ties an authenticated
// user to a role variant: doctor, nurse, patient, or admin. Variant-specific
// fields are only valid for their variant.
package staff

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProfileKind discriminates the profile variant.
type ProfileKind string

const (
	KindDoctor  ProfileKind = "doctor"
	KindNurse   ProfileKind = "nurse"
	KindPatient ProfileKind = "patient"
	KindAdmin   ProfileKind = "admin"
)

var validKinds = map[ProfileKind]bool{
	KindDoctor: true, KindNurse: true, KindPatient: true, KindAdmin: true,
}

// Profile is a clinic user. UserID is the subject claim of the authentication
// token that owns this profile.
type Profile struct {
	ID        uuid.UUID   `json:"id"`
	UserID    string      `json:"user_id"`
	Kind      ProfileKind `json:"kind"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Gender    string      `json:"gender,omitempty"`
	BirthDate *time.Time  `json:"birth_date,omitempty"`
	Address   string      `json:"address,omitempty"`

	// Speciality is set for doctors only.
	Speciality *string `json:"speciality,omitempty"`
	// Faculty is set for nurses only.
	Faculty *string `json:"faculty,omitempty"`
	// InsuranceNo is set for patients only.
	InsuranceNo *string `json:"insurance_no,omitempty"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required fields and that variant-specific fields match the
// profile kind.
func (p *Profile) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if p.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if !validKinds[p.Kind] {
		return fmt.Errorf("invalid kind: %s", p.Kind)
	}
	if p.Speciality != nil && p.Kind != KindDoctor {
		return fmt.Errorf("speciality is only valid for doctor profiles")
	}
	if p.Faculty != nil && p.Kind != KindNurse {
		return fmt.Errorf("faculty is only valid for nurse profiles")
	}
	if p.InsuranceNo != nil && p.Kind != KindPatient {
		return fmt.Errorf("insurance_no is only valid for patient profiles")
	}
	return nil
}

// IsDoctor reports whether the profile is a doctor.
func (p *Profile) IsDoctor() bool { return p.Kind == KindDoctor }

// IsNurse reports whether the profile is a nurse.
func (p *Profile) IsNurse() bool { return p.Kind == KindNurse }

// IsPatient reports whether the profile is a patient.
func (p *Profile) IsPatient() bool { return p.Kind == KindPatient }
