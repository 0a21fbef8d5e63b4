package graph

import (
	"errors"

	"github.com/go-viper/mapstructure/v2"

	"github.com/sakif/event-logger/internal/apperror"
)

// codedError is a query-path failure. graphql-go copies Extensions() into
// the formatted error, so clients see {"message": ..., "extensions": {"code": ...}}.
type codedError struct {
	code    apperror.Code
	message string
}

func (e *codedError) Error() string {
	return e.message
}

func (e *codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.code)}
}

// queryError converts a service error for the query path. Unknown errors
// keep their detail out of the response; the service has already logged it.
func queryError(err error) error {
	code := apperror.CodeOf(err)
	if code == apperror.CodeInternal {
		return &codedError{code: code, message: apperror.InternalMessage}
	}

	var appErr *apperror.AppError
	errors.As(err, &appErr)
	return &codedError{code: code, message: appErr.Message}
}

// decodeInput copies the "input" argument into a service input struct,
// matching fields by json tag.
func decodeInput(args map[string]interface{}, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args["input"])
}
