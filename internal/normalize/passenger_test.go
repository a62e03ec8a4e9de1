package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePassenger(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantErr  error
		wantName string
		email    string
	}{
		{name: "comma form", input: "John Doe, john@example.com", wantName: "John Doe", email: "john@example.com"},
		{name: "embedded email", input: "Jane Roe jane.roe+fly@example.co.in", wantName: "Jane Roe", email: "jane.roe+fly@example.co.in"},
		{name: "email first", input: "asha@example.com Asha Rao", wantName: "Asha Rao", email: "asha@example.com"},
		{name: "name only", input: "John Doe", wantErr: ErrInvalidEmail},
		{name: "email only", input: "john@example.com", wantErr: ErrMissingName},
		{name: "bad email after comma", input: "John Doe, john@", wantErr: ErrInvalidEmail},
		{name: "empty", input: "   ", wantErr: ErrMissingName},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			name, email, err := ParsePassenger(tc.input)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.wantName, name)
			assert.Equal(t, tc.email, email)
		})
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a.b@example.org"))
	assert.False(t, ValidEmail("a@b"))
	assert.False(t, ValidEmail("not an email"))
	assert.False(t, ValidEmail(""))
}
