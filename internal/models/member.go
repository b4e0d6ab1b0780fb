package models

import (
	"strings"
	"time"
)

// Member is a tracked family entity (self, spouse, child, ...). Members have
// no owner field; ownership is expressed only through edges.
type Member struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DisplayName returns the member's full name for messages and emails.
func (m *Member) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}
