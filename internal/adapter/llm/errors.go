package llm

import "errors"

// Generation failures are kept distinct so a failed job can tell the
// user whether the model timed out, was unreachable, or answered with
// something unparseable.
var (
	ErrTimeout           = errors.New("generation timed out")
	ErrService           = errors.New("generation service unavailable")
	ErrMalformedResponse = errors.New("malformed generation response")
)
