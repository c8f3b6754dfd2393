package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ChannelID is the canonical conversation scope used for subscription,
// broadcast and history keys.
type ChannelID string

// NoContext marks a context-free friend chat. It is a distinct scope: the
// friend channel between two identities never collides with any of their
// context-bound channels.
const NoContext = ""

// ResolveChannel derives the channel for an unordered identity pair and an
// optional context id. The two identities are sorted before hashing, so
// ResolveChannel(a, b, ctx) == ResolveChannel(b, a, ctx) for all inputs.
// NUL separators keep the encoding unambiguous for the identity and context
// alphabets in use (email addresses, decimal post ids), so distinct inputs
// yield distinct channels.
func ResolveChannel(a, b Identity, contextID string) (ChannelID, error) {
	if a.IsZero() || b.IsZero() {
		return "", fmt.Errorf("channel resolution requires two identities")
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	h := sha256.New()
	h.Write([]byte(contextID))
	h.Write([]byte{0})
	h.Write([]byte(first))
	h.Write([]byte{0})
	h.Write([]byte(second))
	return ChannelID("ch:" + hex.EncodeToString(h.Sum(nil))), nil
}

// PersonalChannel is the delivery scope every connection of an identity is
// implicitly subscribed to. Direct message delivery targets this channel,
// never the shared conversation channel of the sender.
func PersonalChannel(id Identity) ChannelID {
	sum := sha256.Sum256([]byte(id))
	return ChannelID("user:" + hex.EncodeToString(sum[:]))
}
