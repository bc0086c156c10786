// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/estimator/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: verr.Error(),
			Fields: verr.Fields,
		})
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidStatus):
		Problem(w, http.StatusConflict, "Invalid Status", err.Error())
	case errors.Is(err, shared.ErrConversionConflict):
		Problem(w, http.StatusConflict, "Already Converted", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrAssistUnavailable):
		Problem(w, http.StatusBadGateway, "Assist Unavailable", err.Error())
	case errors.Is(err, shared.ErrMessageDelivery):
		Problem(w, http.StatusBadGateway, "Message Not Delivered", err.Error())
	case errors.Is(err, shared.ErrConversionFailed):
		Problem(w, http.StatusInternalServerError, "Conversion Failed", "the estimate was left unchanged; retry the conversion")
	case errors.Is(err, shared.ErrPersistence):
		Problem(w, http.StatusInternalServerError, "Save Failed", "changes were not saved; retry")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
