package warehouse

import (
	"strconv"
	"strings"
)

// Role tags a derived table as the training or testing split.
type Role string

const (
	RoleTrain Role = "TRAIN"
	RoleTest  Role = "TEST"
)

// BuildIdentifier deterministically encodes a run's parameters into a
// warehouse table name:
//
//	PREFIX_TICKER_STRATEGY_SHIFT_<n>_MOVE_<m>_<ROLE>
//
// The result is a valid warehouse identifier: upper case, underscore
// delimited, no embedded dots (BRK.B becomes BRK_B, 1.5 becomes 1_5). The
// function is pure; identical parameters always yield the identical name,
// and distinct realistic parameter tuples never collide.
func BuildIdentifier(prefix, ticker, strategy string, shiftPeriods int, moveValue float64, role Role) string {
	move := strconv.FormatFloat(moveValue, 'f', -1, 64)
	move = strings.ReplaceAll(move, ".", "_")

	parts := []string{
		sanitize(prefix),
		sanitize(ticker),
		sanitize(strategy),
		"SHIFT",
		strconv.Itoa(shiftPeriods),
		"MOVE",
		move,
		string(role),
	}
	return strings.Join(parts, "_")
}

// sanitize upper-cases a name part and replaces dots with underscores.
func sanitize(part string) string {
	return strings.ReplaceAll(strings.ToUpper(part), ".", "_")
}
