package delivery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"photobooth/internal/services"
)

// Selection names which captured media a job delivers.
type Selection string

const (
	SelectImage    Selection = "image"
	SelectVideo    Selection = "video"
	SelectCombined Selection = "combined"
)

// ParseSelection accepts image, video, or combined (also "both").
func ParseSelection(value string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "image", "photo", "still":
		return SelectImage, nil
	case "video":
		return SelectVideo, nil
	case "combined", "both":
		return SelectCombined, nil
	default:
		return "", services.Wrap(services.ErrValidation, "delivery", "selection", fmt.Sprintf("unknown selection %q", value), nil)
	}
}

func (s Selection) wantsImage() bool { return s == SelectImage || s == SelectCombined }

func (s Selection) wantsVideo() bool { return s == SelectVideo || s == SelectCombined }

// Request triggers a delivery job.
type Request struct {
	Selection Selection `validate:"required,oneof=image video combined"`
	Recipient string    `validate:"required,email"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (r Request) validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field := fieldErrs[0]
		var message string
		switch field.Field() {
		case "Recipient":
			message = fmt.Sprintf("recipient %q is not a valid email address", r.Recipient)
		case "Selection":
			message = fmt.Sprintf("selection %q must be image, video, or combined", r.Selection)
		default:
			message = fmt.Sprintf("%s failed %s", field.Field(), field.Tag())
		}
		return services.Wrap(services.ErrValidation, "delivery", "request", message, nil)
	}
	return services.Wrap(services.ErrValidation, "delivery", "request", "", err)
}
