package warehouse

import "fmt"

// WriteError wraps any connection, DDL, or DML failure while writing one
// table. A failed bulk load leaves the destination row count undefined;
// remediation is re-running create_replace for that identifier.
type WriteError struct {
	Table  string
	Action Action
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("warehouse write failed: table=%s action=%s: %v", e.Table, e.Action, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CollisionError reports two distinct parameter tuples producing the same
// table identifier. This indicates an identifier-builder defect and aborts
// the run: continuing would silently overwrite an unrelated table.
type CollisionError struct {
	Identifier string
	First      string
	Second     string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("table identifier collision on %s: %s vs %s", e.Identifier, e.First, e.Second)
}
