package upipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureRoundTripsFourCC(t *testing.T) {
	sig := NewSignature('f', 's', 'r', 'c')
	assert.Equal(t, "fsrc", sig.String())
}

func TestCheckSignatureAccepts(t *testing.T) {
	sig := NewSignature('t', 'e', 's', 't')
	rest, err := CheckSignature(sig, []any{sig, "extra"})
	require.NoError(t, err)
	assert.Equal(t, []any{"extra"}, rest)
}

func TestCheckSignatureRejectsMismatch(t *testing.T) {
	sig := NewSignature('t', 'e', 's', 't')
	other := NewSignature('o', 't', 'h', 'r')
	_, err := CheckSignature(sig, []any{other})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCheckSignatureRejectsMissing(t *testing.T) {
	sig := NewSignature('t', 'e', 's', 't')
	_, err := CheckSignature(sig, nil)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestErrorIsFatalClassification(t *testing.T) {
	assert.False(t, ErrNone.IsFatal())
	assert.True(t, ErrAlloc.IsFatal())
	assert.False(t, ErrInvalid.IsFatal())
	assert.False(t, ErrBusy.IsFatal())
}

func TestRefcountInvokesNoRefOnce(t *testing.T) {
	var noRefCalls int
	r := NewRefcount(func() { noRefCalls++ })
	r.Use()
	assert.EqualValues(t, 2, r.Count())

	r.Release()
	assert.EqualValues(t, 0, noRefCalls)
	r.Release()
	assert.EqualValues(t, 1, noRefCalls)
}

func TestRefcountRealSurvivesUntilBothZero(t *testing.T) {
	var freed int
	ext := NewRefcount(nil)
	real := NewRefcountReal(ext, func() { freed++ })
	real.UseReal()

	ext.Release() // external refs hit zero, but internal is still 1
	assert.Equal(t, 0, freed)

	real.ReleaseReal()
	assert.Equal(t, 1, freed)
}
