package model

import "fmt"

// FieldError reports an invalid value for a named input field.  The service
// layer converts it into its ValidationError.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s %s", e.Field, e.Reason) }
