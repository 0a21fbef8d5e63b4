// Table-driven tests for the error taxonomy.
// Run with: go test ./internal/apperror/ -v
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("loggable event", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("name", "Name cannot be empty"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("nope"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized(),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "ValidationErrors list matches ErrValidation",
			err:       ValidationErrors{ValidationFailed("name", "x")},
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("loading: %w", NotFound("event label", "x")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("loggable event", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "empty ValidationErrors does NOT match",
			err:       ValidationErrors{},
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"not found", NotFound("loggable event", "1"), CodeNotFound},
		{"validation", ValidationFailed("name", "x"), CodeValidation},
		{"validation list", ValidationErrors{ValidationFailed("name", "x")}, CodeValidation},
		{"forbidden", Forbidden("x"), CodeForbidden},
		{"unauthorized", Unauthorized(), CodeUnauthorized},
		{"wrapped", fmt.Errorf("ctx: %w", Forbidden("x")), CodeForbidden},
		{"plain error", errors.New("driver: connection refused"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToFieldErrors(t *testing.T) {
	t.Run("nil is an empty list", func(t *testing.T) {
		got := ToFieldErrors(nil)
		if got == nil || len(got) != 0 {
			t.Fatalf("ToFieldErrors(nil) = %#v, want empty non-nil slice", got)
		}
	})

	t.Run("one entry per validation failure", func(t *testing.T) {
		err := ValidationErrors{
			ValidationFailed("name", "Name cannot be empty"),
			ValidationFailed("warningThresholdInDays", "Warning threshold must be a positive number"),
		}
		got := ToFieldErrors(err)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].Code != CodeValidation || got[0].Field == nil || *got[0].Field != "name" {
			t.Errorf("got[0] = %+v", got[0])
		}
		if *got[1].Field != "warningThresholdInDays" {
			t.Errorf("got[1].Field = %q", *got[1].Field)
		}
	})

	t.Run("forbidden has no field", func(t *testing.T) {
		got := ToFieldErrors(Forbidden("You do not have permission to delete this loggable event"))
		if len(got) != 1 || got[0].Code != CodeForbidden || got[0].Field != nil {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("unknown errors are hidden", func(t *testing.T) {
		got := ToFieldErrors(errors.New("pq: relation \"users\" does not exist"))
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
		if got[0].Code != CodeInternal || got[0].Field != nil || got[0].Message != InternalMessage {
			t.Errorf("got %+v, want generic INTERNAL_ERROR", got[0])
		}
	})
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
	}{
		{"NotFound message includes resource and id", NotFound("event label", "abc123"), "event label not found with id abc123"},
		{"Unauthorized message", Unauthorized(), "Not authenticated"},
		{"single validation list", ValidationErrors{ValidationFailed("name", "Name cannot be empty")}, "name: Name cannot be empty"},
		{"multi validation list", ValidationErrors{ValidationFailed("id", "ID is required"), ValidationFailed("name", "x")}, "id: ID is required (and 1 more)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}
