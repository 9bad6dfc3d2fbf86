package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"omitempty,email"`
	Code  string `json:"code_no" validate:"max=3"`
}

func TestStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      sample
		missing []string
		fields  []string
	}{
		{"valid", sample{Name: "a", Email: "a@example.com", Code: "abc"}, nil, nil},
		{"blank name", sample{Name: "   "}, []string{"name"}, []string{"name"}},
		{"bad email and long code", sample{Name: "a", Email: "nope", Code: "abcd"}, nil, []string{"code_no", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var fe FieldErrors
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.fields, fe.Names())
			assert.Equal(t, tt.missing, fe.Missing())
		})
	}
}

func TestFieldErrorsString(t *testing.T) {
	fe := FieldErrors{"b": {"two"}, "a": {"one"}}
	assert.Equal(t, "a: one; b: two", fe.Error())
}
