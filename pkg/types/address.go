package types

import (
	"strings"

	"github.com/google/uuid"
)

// Address is a shipping or billing destination. Saved addresses carry an ID
// assigned by the profile collaborator; new ones get a client-generated ID.
type Address struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName" validate:"required"`
	LastName  string    `json:"lastName" validate:"required"`
	Street    string    `json:"street" validate:"required"`
	City      string    `json:"city" validate:"required"`
	State     string    `json:"state" validate:"required"`
	ZipCode   string    `json:"zipCode" validate:"required,us_zip"`
	Phone     string    `json:"phone" validate:"required,phone"`
	Country   string    `json:"country" validate:"required"`
	IsDefault bool      `json:"isDefault"`
}

// Normalized returns a copy with whitespace trimmed and an ID assigned when
// the address is new.
func (a Address) Normalized() Address {
	out := a
	out.FirstName = strings.TrimSpace(a.FirstName)
	out.LastName = strings.TrimSpace(a.LastName)
	out.Street = strings.TrimSpace(a.Street)
	out.City = strings.TrimSpace(a.City)
	out.State = strings.TrimSpace(a.State)
	out.ZipCode = strings.TrimSpace(a.ZipCode)
	out.Phone = strings.TrimSpace(a.Phone)
	out.Country = strings.TrimSpace(a.Country)
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	return out
}
