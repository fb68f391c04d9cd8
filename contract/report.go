package contract

import (
	"fmt"
	"strings"
)

// Report lists the ways in which one exchange deviated from the contract.
type Report struct {
	RequestViolations  []string
	ResponseViolations []string
}

// IsEmpty returns true if the exchange conformed to the contract.
func (r Report) IsEmpty() bool {
	return len(r.RequestViolations) == 0 && len(r.ResponseViolations) == 0
}

func (r Report) String() string {
	if r.IsEmpty() {
		return "no violations"
	}
	var parts []string
	if len(r.RequestViolations) > 0 {
		parts = append(parts, "request: ["+strings.Join(r.RequestViolations, "; ")+"]")
	}
	if len(r.ResponseViolations) > 0 {
		parts = append(parts, "response: ["+strings.Join(r.ResponseViolations, "; ")+"]")
	}
	return strings.Join(parts, " ")
}

func (r *Report) addRequest(format string, args ...interface{}) {
	r.RequestViolations = append(r.RequestViolations, fmt.Sprintf(format, args...))
}

func (r *Report) addResponse(format string, args ...interface{}) {
	r.ResponseViolations = append(r.ResponseViolations, fmt.Sprintf(format, args...))
}
