package urequest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/uref"
)

func TestProvideInvokesCallback(t *testing.T) {
	var got *uref.Uref
	r := New(TypeFlowFormat, nil, func(answer *uref.Uref) error {
		got = answer
		return nil
	})
	answer := &uref.Uref{}
	require.NoError(t, r.Provide(answer))
	assert.Same(t, answer, got)
}

func TestProxyForwardsAnswerToRoot(t *testing.T) {
	var rootGot *uref.Uref
	root := New(TypeUbufMgr, nil, func(answer *uref.Uref) error {
		rootGot = answer
		return nil
	})
	proxy := root.Proxy()

	answer := &uref.Uref{}
	require.NoError(t, proxy.Provide(answer))
	assert.Same(t, answer, rootGot)
	assert.Same(t, root, proxy.Root())
}

func TestRootOnNonProxyIsSelf(t *testing.T) {
	r := New(TypeUclock, nil, nil)
	assert.Same(t, r, r.Root())
}

func TestProvideOnNilCallbackIsNoop(t *testing.T) {
	r := New(TypeSinkLatency, nil, nil)
	assert.NoError(t, r.Provide(&uref.Uref{}))
}
