package cloudfrontwebsite

import "github.com/oklog/ulid/v2"

// IDGenerator provides run correlation ids.
type IDGenerator interface {
	NewID() string
}

// ULIDGenerator generates lexically sortable ids.
type ULIDGenerator struct{}

func (ULIDGenerator) NewID() string {
	return ulid.Make().String()
}
