package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveChannel_Order_Independent(t *testing.T) {
	req := require.New(t)

	// Given two identities and a context
	a := Identity("a@x.com")
	b := Identity("b@x.com")

	// When the channel is resolved with both argument orders
	first, err := ResolveChannel(a, b, "42")
	req.NoError(err)
	second, err := ResolveChannel(b, a, "42")
	req.NoError(err)

	// Then both orders yield the same channel
	req.Equal(first, second)
}

func TestResolveChannel_Context_Separation(t *testing.T) {
	req := require.New(t)
	a := Identity("a@x.com")
	b := Identity("b@x.com")

	// Given the same pair under different contexts
	friend, err := ResolveChannel(a, b, NoContext)
	req.NoError(err)
	post42, err := ResolveChannel(a, b, "42")
	req.NoError(err)
	post43, err := ResolveChannel(a, b, "43")
	req.NoError(err)

	// Then every context yields a distinct channel, the no-context
	// friend chat included
	req.NotEqual(friend, post42)
	req.NotEqual(friend, post43)
	req.NotEqual(post42, post43)
}

func TestResolveChannel_Distinct_Pairs_Never_Collide(t *testing.T) {
	req := require.New(t)

	// Identities whose naive concatenation would be ambiguous
	first, err := ResolveChannel("ab@x.com", "c@x.com", NoContext)
	req.NoError(err)
	second, err := ResolveChannel("a@x.com", "bc@x.com", NoContext)
	req.NoError(err)

	req.NotEqual(first, second)
}

func TestResolveChannel_Rejects_Empty_Identity(t *testing.T) {
	req := require.New(t)

	_, err := ResolveChannel("", "b@x.com", "42")
	req.Error(err)

	_, err = ResolveChannel("a@x.com", "", "42")
	req.Error(err)
}

func TestPersonalChannel_Distinct_Per_Identity(t *testing.T) {
	req := require.New(t)

	req.NotEqual(PersonalChannel("a@x.com"), PersonalChannel("b@x.com"))
	req.Equal(PersonalChannel("a@x.com"), PersonalChannel("a@x.com"))
}
