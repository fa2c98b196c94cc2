package shared

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedRequest struct {
	Email string `validate:"required,email"`
}

type selfValidatingRequest struct {
	err error
}

func (r selfValidatingRequest) Validate() error {
	return r.err
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	t.Run("struct tags pass", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(taggedRequest{Email: "user@example.com"}))
	})

	t.Run("struct tags fail", func(t *testing.T) {
		err := ValidateRequest(taggedRequest{Email: "not-an-email"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Email")
	})

	t.Run("Validate method takes precedence over tags", func(t *testing.T) {
		sentinel := errors.New("bad request")
		err := ValidateRequest(selfValidatingRequest{err: sentinel})
		assert.ErrorIs(t, err, sentinel)

		assert.NoError(t, ValidateRequest(selfValidatingRequest{}))
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var req taggedRequest
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"Email":"user@example.com"}`))
	require.NoError(t, DecodeJSON(r, &req))
	assert.Equal(t, "user@example.com", req.Email)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{not json`))
	assert.Error(t, DecodeJSON(r, &req))
}
