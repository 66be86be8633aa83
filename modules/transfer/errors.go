package transfer

// ValidationError reports an invalid transfer parameter. Error() is the
// user-facing message the HTTP boundary surfaces verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
