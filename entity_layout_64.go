//go:build !ecs_compact

package ecs

// Wide handle layout: 32 id bits and 32 version bits.
const (
	idBits      = 32
	versionBits = 32
)
