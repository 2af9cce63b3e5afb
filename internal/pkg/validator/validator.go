// Package validator checks usecase inputs and module dependencies against
// struct tags.
package validator

// Validator validates structs using struct tags.
type Validator interface {
	Validate(data any) error
}
