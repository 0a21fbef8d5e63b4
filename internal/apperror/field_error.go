package apperror

import "errors"

// FieldError is the wire shape of one entry in a mutation payload's errors
// list: {code, field, message}. Field is nil when the error is not tied to
// an input field.
type FieldError struct {
	Code    Code    `json:"code"`
	Field   *string `json:"field"`
	Message string  `json:"message"`
}

// ToFieldErrors flattens err into payload entries.
//
//   - nil                → empty list
//   - ValidationErrors   → one VALIDATION_ERROR per offending field
//   - *AppError          → a single entry with the error's code
//   - anything else      → a single INTERNAL_ERROR with no field and the
//     generic message, so driver or network details never reach a client
func ToFieldErrors(err error) []FieldError {
	if err == nil {
		return []FieldError{}
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		out := make([]FieldError, 0, len(verrs))
		for _, v := range verrs {
			out = append(out, fromAppError(v))
		}
		return out
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code() != CodeInternal {
		return []FieldError{fromAppError(appErr)}
	}

	return []FieldError{{Code: CodeInternal, Message: InternalMessage}}
}

func fromAppError(e *AppError) FieldError {
	fe := FieldError{Code: e.Code(), Message: e.Message}
	if e.Field != "" {
		field := e.Field
		fe.Field = &field
	}
	return fe
}
