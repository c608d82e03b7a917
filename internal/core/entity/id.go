package entity

import "fmt"

// ID is an opaque entity handle made of a slot index and a generation.
// The generation disambiguates reused indices: a handle taken before its
// entity was destroyed never aliases a newer entity living in the same slot.
// The zero ID is never a live entity.
type ID struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether the handle is the invalid zero value.
func (id ID) IsZero() bool {
	return id.Generation == 0
}

func (id ID) String() string {
	return fmt.Sprintf("entity(%d:%d)", id.Index, id.Generation)
}
