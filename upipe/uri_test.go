package upipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURISplitsComponents(t *testing.T) {
	u, err := ParseURI("http://example.com/path?lang=eng")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme())
	assert.Equal(t, "/path", u.Path())
	assert.Equal(t, "eng", u.Query().Get("lang"))
}

func TestParseURIRejectsInvalid(t *testing.T) {
	_, err := ParseURI("http://%zz")
	assert.ErrorIs(t, err, ErrInvalid)
}
