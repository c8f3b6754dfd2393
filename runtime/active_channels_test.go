package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-live/domain"
)

func TestActiveChannels_Track_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	channels := NewActiveChannelRegistry()
	channel, err := domain.ResolveChannel("a@x.com", "b@x.com", "42")
	req.NoError(err)

	// Given the same conversation tracked twice
	channels.Track(channel, "42", "a@x.com", "b@x.com")
	channels.Track(channel, "42", "b@x.com", "a@x.com")

	// Then it counts once with both participants
	req.Equal(1, channels.Count())
	req.Equal([]domain.Identity{"a@x.com", "b@x.com"}, channels.Participants(channel))
}

func TestActiveChannels_Leave_Removes_Empty_Conversations(t *testing.T) {
	req := require.New(t)
	channels := NewActiveChannelRegistry()
	channel, err := domain.ResolveChannel("a@x.com", "b@x.com", "")
	req.NoError(err)
	channels.Track(channel, "", "a@x.com", "b@x.com")

	channels.Leave(channel, "a@x.com")
	req.Equal([]domain.Identity{"b@x.com"}, channels.Participants(channel))
	req.Equal(1, channels.Count())

	channels.Leave(channel, "b@x.com")
	req.Zero(channels.Count())
	req.Empty(channels.Participants(channel))
}
