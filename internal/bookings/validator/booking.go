package validator

import (
	"errors"
	"fmt"
	"staybook/pkg/docstore"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks the offering fields and that the derived booking key can
// be stored as a single path segment.
func (v *BookingValidator) Validate(offering *model.Offering) error {
	if offering == nil {
		return ValidationErrors{{Field: "Offering", Message: "offering is required"}}
	}

	if err := v.validate.Struct(offering); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	key := offering.BookingKey()
	if model.IsTemporaryKey(key) {
		return ValidationErrors{
			ValidationError{
				Field:   "HotelID",
				Message: fmt.Sprintf("hotel_id must not start with %q", model.TemporaryKeyPrefix),
			},
		}
	}
	if err := docstore.ValidateSegment(key); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "Key",
				Message: fmt.Sprintf("booking key %q is not storable: %v", key, err),
			},
		}
	}

	return nil
}

// ValidateUserID checks that a derived user id can address the user's subtree.
func (v *BookingValidator) ValidateUserID(userID string) error {
	if err := docstore.ValidateSegment(userID); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "UserID",
				Message: fmt.Sprintf("user id %q is not storable: %v", userID, err),
			},
		}
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in the form %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
