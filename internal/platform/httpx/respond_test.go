package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/estimator/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("get estimate: %w", shared.ErrNotFound), http.StatusNotFound},
		{shared.ErrInvalidStatus, http.StatusConflict},
		{&shared.ConversionConflictError{EstimateID: "e1", InvoiceID: "i1"}, http.StatusConflict},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{shared.ErrAssistUnavailable, http.StatusBadGateway},
		{fmt.Errorf("%w: tx", shared.ErrConversionFailed), http.StatusInternalServerError},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestRespondErrorValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("create estimate: %w", shared.NewValidationError("client_id", "client is required")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, "client is required", problem.Fields["client_id"])
}

func TestDecodeJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var target map[string]any
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, shared.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err = DecodeJSON(req, &target)
	require.ErrorIs(t, err, shared.ErrValidation)
}
