package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Code string `validate:"required,numeric,len=5"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{Code: "12345"}))
	assert.ErrorContains(t, Struct(sample{}), "field 'Code' failed 'required'")
	assert.ErrorContains(t, Struct(sample{Code: "12a45"}), "failed 'numeric'")
	assert.ErrorContains(t, Struct(sample{Code: "1234"}), "failed 'len'")
}

func TestVar_Email(t *testing.T) {
	assert.NoError(t, Var("alice@example.com", "email"))
	assert.ErrorContains(t, Var("alice@", "email"), "value failed 'email'")
}
