package license

// ValidationError reports that the sales platform examined the
// activation request and rejected it. Message is the platform's own
// explanation and is shown to the user as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
