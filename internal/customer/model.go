package customer

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

type Customer struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	Company     string    `json:"company,omitempty" db:"company"`
	Address     string    `json:"address,omitempty" db:"address"`
	City        string    `json:"city,omitempty" db:"city"`
	State       string    `json:"state,omitempty" db:"state"`
	ZipCode     string    `json:"zip_code,omitempty" db:"zip_code"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	CreatedDate time.Time `json:"created_date" db:"created_date"`
}

// MailingAddress joins the non-empty address parts with ", ".
func (c Customer) MailingAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.Address, c.City, c.State, c.ZipCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Patch is a merged update: nil fields are left untouched.
type Patch struct {
	Name    *string
	Email   *string
	Phone   *string
	Company *string
	Address *string
	City    *string
	State   *string
	ZipCode *string
	Notes   *string
}

func (p Patch) Apply(c *Customer) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.Name, p.Name)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.Company, p.Company)
	set(&c.Address, p.Address)
	set(&c.City, p.City)
	set(&c.State, p.State)
	set(&c.ZipCode, p.ZipCode)
	set(&c.Notes, p.Notes)
}

type ListFilter struct {
	// Search is matched case-insensitively against name, email and company.
	Search string
}

func (f ListFilter) Matches(c Customer) bool {
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	for _, field := range []string{c.Name, c.Email, c.Company} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
