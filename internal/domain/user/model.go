// Package user keeps the local user directory in sync with the identity
// provider and manages role assignment.
package user

import (
	"strings"
	"time"

	"github.com/nutrilab/nutrilab/internal/platform/auth"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Role      auth.Role `json:"role"`
	NutriCode *string   `json:"nutri_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SetRoleInput is the body of PUT /api/admin/users/:id/role.
type SetRoleInput struct {
	Role      string `json:"role"`
	NutriCode string `json:"nutri_code,omitempty"`
}

// Me is the body of GET /api/me. Profile is nil until the provider webhook
// has created the local row.
type Me struct {
	Identity *auth.Identity `json:"identity"`
	Profile  *User          `json:"profile"`
}

// ClerkEvent is the envelope of an identity-provider webhook.
type ClerkEvent struct {
	Type string        `json:"type"`
	Data ClerkUserData `json:"data"`
}

type ClerkUserData struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// Email prefers the primary address, falling back to the first one.
func (d *ClerkUserData) Email() string {
	for _, e := range d.EmailAddresses {
		if d.PrimaryEmailAddressID != "" && e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

func (d *ClerkUserData) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// WebhookResult is returned to the provider.
type WebhookResult struct {
	Status  string `json:"status"`
	Event   string `json:"event"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
}
