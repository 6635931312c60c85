package ctcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	irc "github.com/goircorg/irc"
)

func TestClientVersionReply(t *testing.T) {
	c := irc.NewClient("irc.example.org:6667")
	ctc := NewClient(c, "goircbot", "1.0")
	assert.Equal(t, "goircbot", ctc.ClientName)

	// With no live connection, queries fail to enqueue a reply but must not panic; the
	// handler always routes through Client.SendCTCPReply regardless of connection state.
	assert.NotPanics(t, func() {
		c.OnCTCPQuery.Emit(irc.CTCPQueryEvent{
			Source: &irc.User{NickName: "lookup"},
			Tag:    "VERSION",
		})
	})
}

func TestClientActionEmitsOnPrivateAction(t *testing.T) {
	c := irc.NewClient("irc.example.org:6667")
	ctc := NewClient(c, "goircbot", "1.0")

	var got ActionEvent
	fired := false
	ctc.OnAction.On(func(e ActionEvent) {
		fired = true
		got = e
	})

	c.OnCTCPQuery.Emit(irc.CTCPQueryEvent{
		Source: &irc.User{NickName: "friend"},
		Target: "",
		Tag:    "ACTION",
		Text:   "waves",
	})

	assert.True(t, fired)
	assert.Equal(t, "friend", got.Source.NickName)
	assert.Equal(t, "waves", got.Text)
}

func TestClientActionIgnoredWhenChannelDirected(t *testing.T) {
	c := irc.NewClient("irc.example.org:6667")
	ctc := NewClient(c, "goircbot", "1.0")

	fired := false
	ctc.OnAction.On(func(e ActionEvent) { fired = true })

	c.OnCTCPQuery.Emit(irc.CTCPQueryEvent{
		Source: &irc.User{NickName: "friend"},
		Target: "#general",
		Tag:    "ACTION",
		Text:   "waves",
	})

	assert.False(t, fired)
}

func TestClientPingRoundTrip(t *testing.T) {
	c := irc.NewClient("irc.example.org:6667")
	ctc := NewClient(c, "goircbot", "1.0")

	var got PingReplyEvent
	fired := false
	ctc.OnPingReply.On(func(e PingReplyEvent) {
		fired = true
		got = e
	})

	// Ping fails to enqueue without a live connection, but it must still record the
	// token so a later reply correlates correctly.
	_ = ctc.Ping("friend")

	ctc.mu.Lock()
	var token string
	for id := range ctc.pending {
		token = id
	}
	ctc.mu.Unlock()
	assert.NotEmpty(t, token)

	c.OnCTCPReply.Emit(irc.CTCPReplyEvent{
		Source: &irc.User{NickName: "friend"},
		Tag:    "PING",
		Text:   token,
	})

	assert.True(t, fired)
	assert.Equal(t, "friend", got.Source.NickName)
	assert.GreaterOrEqual(t, got.Latency, time.Duration(0))

	ctc.mu.Lock()
	_, stillPending := ctc.pending[token]
	ctc.mu.Unlock()
	assert.False(t, stillPending)
}

func TestClientPingReplyIgnoredForUnknownToken(t *testing.T) {
	c := irc.NewClient("irc.example.org:6667")
	ctc := NewClient(c, "goircbot", "1.0")

	fired := false
	ctc.OnPingReply.On(func(e PingReplyEvent) { fired = true })

	c.OnCTCPReply.Emit(irc.CTCPReplyEvent{
		Source: &irc.User{NickName: "friend"},
		Tag:    "PING",
		Text:   "not-a-real-token",
	})

	assert.False(t, fired)
}
