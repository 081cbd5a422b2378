package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"documind/internal/models"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{models.ErrSessionNotFound, http.StatusNotFound},
		{models.ErrInvalidConfig, http.StatusBadRequest},
		{models.ErrEmptyDocument, http.StatusBadRequest},
		{models.ErrUnsupportedFormat, http.StatusBadRequest},
		{models.ErrEmbeddingFailure, http.StatusBadGateway},
		{models.ErrGenerationFailure, http.StatusBadGateway},
		{errors.New("something else"), http.StatusInternalServerError},
		{fmt.Errorf("%w: abc123", models.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: chunk 3: timeout", models.ErrEmbeddingFailure), http.StatusBadGateway},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), "%v", tc.err)
	}
}

func TestHandleError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, fmt.Errorf("%w: abc", models.ErrSessionNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"session not found: abc"}`, rec.Body.String())
}
