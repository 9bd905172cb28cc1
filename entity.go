package ecs

import "fmt"

// Handle identifies an entity. The low idBits carry the entity id and the
// next versionBits carry a version counter used for stale-handle detection.
// The width split is selected at build time; see entity_layout_64.go and
// entity_layout_compact.go.
type Handle uint64

const (
	idMask      uint64 = (1 << idBits) - 1
	versionMask uint64 = (1 << versionBits) - 1
)

// MakeHandle packs an id and a version into a handle. Bits outside the
// field widths are discarded.
func MakeHandle(id, version uint64) Handle {
	return Handle(id&idMask | (version&versionMask)<<idBits)
}

// IDOf extracts the id field of the handle.
func IDOf(h Handle) uint64 {
	return uint64(h) & idMask
}

// VersionOf extracts the version field of the handle.
func VersionOf(h Handle) uint64 {
	return (uint64(h) >> idBits) & versionMask
}

// Null returns the sentinel handle. Its id bits are all ones; no live
// entity ever carries it.
func Null() Handle {
	return MakeHandle(idMask, versionMask)
}

// IsNull reports whether the handle's id field is the all-ones sentinel.
func IsNull(h Handle) bool {
	return IDOf(h) == idMask
}

// NextVersion returns the handle with its version bumped. The version wraps
// around its field width and skips the value that would let a recycled
// handle collide with the null sentinel pattern.
func (h Handle) NextVersion() Handle {
	next := VersionOf(h) + 1
	if next == idMask {
		next++
	}
	return MakeHandle(IDOf(h), next)
}

// String renders the handle for debugging.
func (h Handle) String() string {
	if IsNull(h) {
		return "Handle(null)"
	}
	return fmt.Sprintf("Handle(%d:%d)", IDOf(h), VersionOf(h))
}
