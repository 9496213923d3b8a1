package reqtx

import (
	"errors"
	"fmt"
)

// ErrContinuationMisuse is returned when Scope.Done receives a value that is
// neither nil nor an error. the continuation argument is a deliberate
// dual-purpose contract (absent or error); anything else is a hard usage
// violation, never silently forwarded.
var ErrContinuationMisuse = errors.New("reqtx: continuation called with a non-error value")

// SignatureError reports an invalid handler declaration. it is raised at wrap
// time, before any request runs.
type SignatureError struct {
	// Subject is the offending part: "Leading" or a capability name.
	Subject string
	Reason  string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("reqtx: invalid handler signature: %s: %s", e.Subject, e.Reason)
}
