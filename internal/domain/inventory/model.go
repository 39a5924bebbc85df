// Package inventory manages the medicine catalog and its stock ledger. Stock
// is decremented atomically so that concurrent prescriptions can never drive a
// quantity negative.
package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Medicine is a catalog entry with its current stock level. Price is the
// catalog price per unit; prescriptions copy it at prescribe time so later
// price changes do not affect issued prescriptions.
type Medicine struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	ActiveSubstances string    `json:"active_substances,omitempty"`
	Unit             string    `json:"unit"`
	Quantity         int       `json:"quantity"`
	Description      string    `json:"description,omitempty"`
	Dosage           *string   `json:"dosage,omitempty"`

	// Default directions, used when a prescription line does not override them.
	Instructions      string `json:"instructions,omitempty"`
	UsageInstructions string `json:"usage_instructions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Medicine) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if m.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if m.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	return nil
}
