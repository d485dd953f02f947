package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sharetube/watchsync/internal/protocol"
	"github.com/sharetube/watchsync/pkg/validator"
)

type validationError struct {
	errors []validator.ValidationError
}

func (e *validationError) Error() string {
	return "validation failed"
}

// generateTimeBasedId returns a UUIDv7, so ids sort by creation time.
func (c *controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func (c *controller) errorPayload(err error) *protocol.Error {
	var verr *validationError
	if !errors.As(err, &verr) {
		return &protocol.Error{Message: err.Error()}
	}

	fieldErrors := make([]protocol.FieldError, 0, len(verr.errors))
	for _, e := range verr.errors {
		fieldErrors = append(fieldErrors, protocol.FieldError{
			Field:   e.Field,
			Code:    e.Code,
			Message: e.Message,
		})
	}

	return &protocol.Error{
		Message: verr.Error(),
		Errors:  fieldErrors,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}
