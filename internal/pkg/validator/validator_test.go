package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name string `validate:"required,max=5"`
	Kind string `validate:"omitempty,oneof=a b"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Name: "ok"}))
	assert.Equal(t, map[string]string{"Name": "required"}, Validate(sample{}))
	assert.Equal(t, map[string]string{"Name": "max", "Kind": "oneof"}, Validate(sample{Name: "toolong", Kind: "z"}))
}

func TestValidateNonStruct(t *testing.T) {
	assert.Contains(t, Validate(42), "_")
}
