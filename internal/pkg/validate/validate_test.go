package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type emailInput struct {
	Email string `validate:"required,loose_email"`
}

func TestStruct_LooseEmail(t *testing.T) {
	assert.NoError(t, Struct(emailInput{Email: "a@b.com"}))
	assert.NoError(t, Struct(emailInput{Email: "first.last+tag@sub.example.org"}))

	err := Struct(emailInput{Email: "not-an-email"})
	assert.ErrorContains(t, err, "field 'Email' failed 'loose_email'")

	err = Struct(emailInput{Email: "a@b"})
	assert.ErrorContains(t, err, "loose_email")
}

func TestStruct_Required(t *testing.T) {
	err := Struct(emailInput{})
	assert.ErrorContains(t, err, "field 'Email' failed 'required'")
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("x@y.z"))
	assert.False(t, Email("x@y"))
	assert.False(t, Email(""))
}
