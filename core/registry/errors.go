package registry

import (
	"fmt"
	"strings"
)

// ConflictType identifies what two bindings collide on.
type ConflictType string

const (
	// ConflictBinding means two entries use the same binding name.
	ConflictBinding ConflictType = "binding"
	// ConflictInstance means two entries bind the same module instance.
	ConflictInstance ConflictType = "instance"
)

// Conflict describes one collision between bindings.
type Conflict struct {
	Type   ConflictType
	Key    string
	Claims []string
}

func (c Conflict) Error() string {
	return fmt.Sprintf("%s %q claimed by %s", c.Type, c.Key, strings.Join(c.Claims, " and "))
}

// ConflictError represents one or more binding conflicts.
type ConflictError struct {
	Conflicts []Conflict
}

// Error returns the conflict error message.
func (e *ConflictError) Error() string {
	var msgs []string
	for _, c := range e.Conflicts {
		msgs = append(msgs, c.Error())
	}
	return fmt.Sprintf("module conflicts detected:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasConflicts returns true if there are any conflicts.
func (e *ConflictError) HasConflicts() bool {
	return len(e.Conflicts) > 0
}

// MissingSystemError is returned when no module is bound as System.
type MissingSystemError struct {
	Name string
}

func (e *MissingSystemError) Error() string {
	return fmt.Sprintf("runtime declares no %q module", e.Name)
}

// DuplicateSystemError is returned when more than one module is bound as System.
type DuplicateSystemError struct {
	Name    string
	Modules []string
}

func (e *DuplicateSystemError) Error() string {
	return fmt.Sprintf("runtime declares %q %d times (%s)", e.Name, len(e.Modules), strings.Join(e.Modules, ", "))
}
