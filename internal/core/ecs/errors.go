package ecs

import (
	"errors"
	"fmt"
)

// Store errors
var (
	ErrUnknownEntity    = errors.New("ecs: entity is not alive")
	ErrUnknownComponent = errors.New("ecs: component type is not registered")
)

// DependencyError reports a component operation that would violate a
// registered dependency between component types.
type DependencyError struct {
	// Component is the type the failed operation targeted.
	Component string
	// Dependency is the type whose relationship blocked the operation.
	Dependency string
	// Removal is true when the failure came from RemoveComponent, false
	// when a required dependency was missing during AddComponent.
	Removal bool
}

func (e *DependencyError) Error() string {
	if e.Removal {
		return fmt.Sprintf("ecs: cannot remove %s while %s depends on it", e.Dependency, e.Component)
	}
	return fmt.Sprintf("ecs: component %s requires %s", e.Component, e.Dependency)
}
