package ecs

import (
	"hash/fnv"
	"reflect"
	"sync"
)

// TypeID identifies a component type. It is a deterministic hash of the
// type's fully qualified name, so identical types map to identical ids
// within a build. The value is opaque to callers.
type TypeID uint64

var typeIDCache sync.Map // reflect.Type -> TypeID

// TypeIDOf returns the id of component type T.
func TypeIDOf[T any]() TypeID {
	return typeIDFor(reflect.TypeOf((*T)(nil)).Elem())
}

func typeIDFor(t reflect.Type) TypeID {
	if cached, ok := typeIDCache.Load(t); ok {
		return cached.(TypeID)
	}
	name := t.String()
	if path := t.PkgPath(); path != "" {
		name = path + "." + t.Name()
	}
	hasher := fnv.New64a()
	hasher.Write([]byte(name))
	id := TypeID(hasher.Sum64())
	typeIDCache.Store(t, id)
	return id
}
