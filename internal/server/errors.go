package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/summary"
)

var errSummariesDisabled = errors.New("summaries are disabled: no language model configured")

// httpStatus maps domain errors to response codes. Unknown errors are 500.
func httpStatus(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ledger.ErrInvalidID), errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, summary.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, summary.ErrNothingToSummarize):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errSummariesDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("validation error: %s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("validation error: %s must satisfy %s", fe.Field(), fe.Tag())
	}
	return "validation error: invalid request"
}
