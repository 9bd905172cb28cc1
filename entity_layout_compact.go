//go:build ecs_compact

package ecs

// Compact handle layout: 20 id bits and 12 version bits. The handle still
// travels as a uint64 but only the low 32 bits are meaningful.
const (
	idBits      = 20
	versionBits = 12
)
