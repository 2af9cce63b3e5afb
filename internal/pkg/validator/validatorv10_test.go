package validator

import (
	"errors"
	"testing"
)

type entryInput struct {
	Name      string `validate:"required,max=255"`
	Algorithm string `validate:"omitempty,otpalgo"`
	Digits    int    `validate:"omitempty,oneof=6 7 8"`
}

func TestV10Validator(t *testing.T) {
	// Arrange
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator: %v", err)
	}

	tests := []struct {
		name   string
		in     entryInput
		fields []string
	}{
		{"valid", entryInput{Name: "GitHub", Algorithm: "SHA-256", Digits: 8}, nil},
		{"defaults", entryInput{Name: "GitHub"}, nil},
		{"bad algorithm", entryInput{Name: "GitHub", Algorithm: "md5"}, []string{"algorithm"}},
		{"missing name and bad digits", entryInput{Digits: 9}, []string{"name", "digits"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := v.Validate(tt.in)

			// Assert
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected V10ValidationError, got %v", err)
			}
			for _, f := range tt.fields {
				if _, ok := verr.Values()[f]; !ok {
					t.Fatalf("missing field %q in %v", f, verr)
				}
			}
		})
	}
}
