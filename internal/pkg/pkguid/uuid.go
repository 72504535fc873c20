package pkguid

import "github.com/google/uuid"

// UUID issues version 7 UUIDs. Run IDs are exposed over HTTP and sort by
// submission time.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
