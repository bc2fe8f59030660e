package domain

import (
	"strings"
	"time"
)

// Application identifies one tenant contributing request-log rows. Each
// tenant owns exactly one log relation inside its own database schema.
type Application struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Schema returns the schema identifier derived from the tenant name.
func (a Application) Schema() string {
	return strings.ToLower(a.Name)
}
