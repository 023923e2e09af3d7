package rpc

import (
	"fmt"
	"strings"
)

// CodePolicyViolation is returned when the read-only guard blocks a call.
const CodePolicyViolation = -32001

// writeMarkers are matched case-insensitively anywhere in the method name.
// This is a naming heuristic: a read whose name contains one of these
// (say "get_update_history") is blocked too. Keep the list as is.
var writeMarkers = []string{"create", "update", "delete", "append", "set_", "do_"}

// IsWriteMethod reports whether method looks like a mutating call.
func IsWriteMethod(method string) bool {
	lower := strings.ToLower(method)
	for _, m := range writeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// CheckWrite returns a *PolicyViolationError when readOnly is set and method
// looks like a write. It never performs I/O.
func CheckWrite(method string, readOnly bool) error {
	if !readOnly || !IsWriteMethod(method) {
		return nil
	}
	return &PolicyViolationError{
		Method: method,
		Message: fmt.Sprintf(
			"Write operation '%s' is not allowed in read-only mode. "+
				"Set read_only=False to enable write operations.", method),
	}
}
