package errors_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/dalemusser/usersvc/internal/app/features/errors"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func router() http.Handler {
	h := apperrors.NewHandler()
	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Post("/graphql", func(w http.ResponseWriter, r *http.Request) {})
	return r
}

type body struct {
	Errors []struct {
		Message    string            `json:"message"`
		Extensions map[string]string `json:"extensions"`
	} `json:"errors"`
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var b body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	require.Len(t, b.Errors, 1)
	assert.Equal(t, "NOT_FOUND", b.Errors[0].Extensions["code"])
	assert.Contains(t, b.Errors[0].Message, "/nope")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/graphql", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	var b body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	require.Len(t, b.Errors, 1)
	assert.Equal(t, "METHOD_NOT_ALLOWED", b.Errors[0].Extensions["code"])
}
