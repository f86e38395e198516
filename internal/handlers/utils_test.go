package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/obotesoftech/prisonreturns/internal/services"
	"github.com/obotesoftech/prisonreturns/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&services.ValidationError{Field: "data", Message: "required"}, http.StatusBadRequest},
		{services.ErrNoRows, http.StatusNotFound},
		{services.ErrWrongPassword, http.StatusUnauthorized},
		{services.ErrUnknownAccount, http.StatusUnauthorized},
		{services.ErrInvalidToken, http.StatusUnauthorized},
		{services.ErrRoleMismatch, http.StatusForbidden},
		{services.ErrStationMismatch, http.StatusForbidden},
		{services.ErrUnauthorizedStation, http.StatusForbidden},
		{services.ErrChatSignInRequired, http.StatusForbidden},
		{services.ErrLastAdmin, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", store.ErrNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}

	_, message := statusFor(&services.ValidationError{Field: "data", Message: "required"})
	assert.Equal(t, "required", message)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := bearerToken(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "Basic abc")
	_, err = bearerToken(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "bearer  abc ")
	token, err := bearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestReadFileLimited(t *testing.T) {
	data, err := readFileLimited(strings.NewReader("12345"), 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = readFileLimited(strings.NewReader("123456"), 5)
	assert.EqualError(t, err, "uploaded file too large")
}

func TestParseSubmissionJSONSetsScope(t *testing.T) {
	body := `{"frequency":"monthly","returnType":"escape","station":"Kigo (M)","data":"none"}`
	req := httptest.NewRequest(http.MethodPost, "/returns", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerClientProfile, "front-desk")

	in, err := parseSubmission(req)
	require.NoError(t, err)
	assert.Equal(t, "escape", in.ReturnType)
	assert.Equal(t, "front-desk", in.Scope)
	assert.Nil(t, in.File)
}
