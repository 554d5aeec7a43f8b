package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alugserv/internal/apperr"
	"alugserv/internal/validate"
)

type signup struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestStructNamesFieldInMessage(t *testing.T) {
	err := validate.Struct(signup{Password: "secret1"})
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 400, e.Status)
	assert.Equal(t, "username is required", e.Message)

	err = validate.Struct(signup{Username: "ana", Password: "123"})
	require.Error(t, err)
	e, _ = apperr.As(err)
	assert.Contains(t, e.Message, "password")

	assert.NoError(t, validate.Struct(signup{Username: "ana", Password: "123456"}))
}

func TestEmail(t *testing.T) {
	_, ok := validate.Email(" contato@alugserv.com.br ")
	assert.True(t, ok)
	_, ok = validate.Email("not-an-email")
	assert.False(t, ok)
	_, ok = validate.Email("")
	assert.False(t, ok)
}

func TestID(t *testing.T) {
	id, ok := validate.ID("42")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)
	for _, bad := range []string{"", "0", "-3", "abc", "1.5"} {
		_, ok := validate.ID(bad)
		assert.False(t, ok, bad)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Betoneira alert(1)", validate.Clean("  <b>Betoneira</b> <script>alert(1)</script> "))
}
