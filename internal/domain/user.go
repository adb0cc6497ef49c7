package domain

import "time"

// User is an end user upserted from a provider identity. ID is the internal
// stable identifier; Subject is the identifier assigned by the provider.
type User struct {
	ID        int64
	Subject   string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
