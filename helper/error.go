package helper

import "fmt"

// NewError wraps err with a call-site context string, matching the shape
// expected by callers throughout this repository.
func NewError(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
