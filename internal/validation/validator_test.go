package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpBody struct {
	Name     string `json:"name" validate:"required,max=10"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Website  string `json:"website,omitempty" validate:"omitempty,url"`
}

func TestValidatePasses(t *testing.T) {
	v := New()
	err := v.Validate(signUpBody{Name: "Ada", Email: "ada@example.com", Password: "longenough"})
	assert.NoError(t, err)
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Validate(signUpBody{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	var fieldErrs *Errors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Equal(t, "is required", fieldErrs.Fields["name"])
	assert.Equal(t, "must be a valid email address", fieldErrs.Fields["email"])
	assert.Equal(t, "must be at least 8 characters", fieldErrs.Fields["password"])
}

func TestValidateStripsJSONTagOptions(t *testing.T) {
	v := New()
	err := v.Validate(signUpBody{Name: "Ada", Email: "ada@example.com", Password: "longenough", Website: "not a url"})
	require.Error(t, err)

	var fieldErrs *Errors
	require.True(t, errors.As(err, &fieldErrs))
	// The ",omitempty" suffix must not leak into the field name.
	assert.Equal(t, "must be a valid URL", fieldErrs.Fields["website"])
}

func TestValidateMaxMessage(t *testing.T) {
	v := New()
	err := v.Validate(signUpBody{Name: "a very long name", Email: "ada@example.com", Password: "longenough"})
	require.Error(t, err)

	var fieldErrs *Errors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Equal(t, "must not exceed 10 characters", fieldErrs.Fields["name"])
}
