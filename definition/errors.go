package definition

import "fmt"

// DefinitionError reports malformed author input. It always names the field
// that failed so authors can locate the problem without reading engine code.
type DefinitionError struct {
	Field       string
	Description string
	Value       any
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("definition: %s: %s (value: %v)", e.Field, e.Description, e.Value)
	}
	return fmt.Sprintf("definition: %s: %s", e.Field, e.Description)
}

func defErr(field, format string, args ...any) *DefinitionError {
	return &DefinitionError{Field: field, Description: fmt.Sprintf(format, args...)}
}
