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

type OfferingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewOfferingValidator(log *logger.Logger) *OfferingValidator {
	v := validator.New()

	if err := v.RegisterValidation("store_segment", validateStoreSegment); err != nil {
		log.Fatal("Failed to register 'store_segment' validator",
			"error", err,
		)
	}

	log.Info("Offering validator initialized successfully")

	return &OfferingValidator{
		validate: v,
		logger:   log,
	}
}

func validateStoreSegment(fl validator.FieldLevel) bool {
	return docstore.ValidateSegment(fl.Field().String()) == nil
}

// rooms are keyed by room type, which becomes part of booking keys
type roomKeys struct {
	RoomTypes []string `validate:"dive,required,max=100,store_segment"`
}

// ValidateHotelDay checks a catalog entry before it is written. Date is
// required for writes even though stored entries may omit it.
func (v *OfferingValidator) ValidateHotelDay(day *model.HotelDay) error {
	if err := v.validate.Struct(day); err != nil {
		return v.translate(err)
	}

	var errs ValidationErrors
	if day.Date == "" {
		errs = append(errs, ValidationError{Field: "Date", Message: "Date is required"})
	}
	if err := docstore.ValidateSegment(day.HotelID); err != nil {
		errs = append(errs, ValidationError{Field: "HotelID", Message: err.Error()})
	}
	if strings.HasPrefix(day.HotelID, model.TemporaryKeyPrefix) {
		errs = append(errs, ValidationError{
			Field:   "HotelID",
			Message: fmt.Sprintf("HotelID must not start with %q", model.TemporaryKeyPrefix),
		})
	}

	keys := roomKeys{}
	for roomType := range day.Rooms {
		keys.RoomTypes = append(keys.RoomTypes, roomType)
	}
	if err := v.validate.Struct(keys); err != nil {
		errs = append(errs, v.translate(err)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *OfferingValidator) translate(err error) ValidationErrors {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return ValidationErrors{{Field: "HotelDay", Message: err.Error()}}
	}

	var out ValidationErrors
	for _, e := range validationErrs {
		message := e.Error()

		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", e.Field())
		case "min":
			message = fmt.Sprintf("%s must have at least %s item(s)", e.Field(), e.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
		case "ltefield":
			message = fmt.Sprintf("%s must not exceed %s", e.Field(), e.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in the form %s", e.Field(), e.Param())
		case "store_segment":
			message = fmt.Sprintf("%s %q cannot be used as a key", e.Field(), e.Value())
		}

		out = append(out, ValidationError{
			Field:   e.Field(),
			Message: message,
		})
	}
	return out
}
