package alignment

import (
	"errors"
	"fmt"
)

// ErrUnsupportedAlignment is matched by every *UnsupportedAlignmentError.
var ErrUnsupportedAlignment = errors.New("unsupported alignment")

// Conditions reported by UnsupportedAlignmentError.
const (
	CondLengthMismatch = "query and hit alignment strings differ in length"
	CondEmpty          = "alignment strings are empty"
	CondLeadingGap     = "alignment starts with a gap"
	CondTrailingGap    = "alignment ends with a gap"
)

// UnsupportedAlignmentError reports an HSP whose gapped strings cannot be
// converted into segments.
type UnsupportedAlignmentError struct {
	Reference string
	Query     string
	Condition string
}

func (e *UnsupportedAlignmentError) Error() string {
	return fmt.Sprintf("unsupported alignment of query %q against reference %q: %s", e.Query, e.Reference, e.Condition)
}

// Is makes errors.Is(err, ErrUnsupportedAlignment) true.
func (e *UnsupportedAlignmentError) Is(target error) bool {
	return target == ErrUnsupportedAlignment
}
