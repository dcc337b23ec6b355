package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitValidators_role(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	type request struct {
		Role string `json:"role" validate:"approle"`
	}

	assert.NoError(t, validate.Struct(request{Role: RoleInstructor}))
	assert.NoError(t, validate.Var(RoleStudent, roleTag))

	err := validate.Struct(request{Role: "admin"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	if assert.Len(t, verrs, 1) {
		assert.Equal(t, "role", verrs[0].Field())
		assert.Equal(t, "role must be one of: instructor, student", verrs[0].Translate(translator))
	}
}
