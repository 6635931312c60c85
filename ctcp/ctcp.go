// Package ctcp implements the Client-to-Client Protocol sub-dialect carried inside ordinary
// PRIVMSG/NOTICE bodies: ACTION, VERSION, PING, TIME, and CLIENTINFO queries and their
// replies.
package ctcp

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	irc "github.com/goircorg/irc"
)

// ActionEvent is emitted for a CTCP ACTION (the conventional "/me" message) sent directly
// to us, as opposed to a channel (which instead fires the Channel's own OnAction).
type ActionEvent struct {
	Source *irc.User
	Text   string
}

// PingReplyEvent is emitted once a CTCP PING query we sent has been echoed back.
type PingReplyEvent struct {
	Source  *irc.User
	Latency time.Duration
}

// Client augments an *irc.Client with CTCP query handling: it answers VERSION, PING, TIME,
// and CLIENTINFO queries automatically, re-emits ACTION as a friendlier event, and tracks
// the round trip of PING queries it sends.
//
// Construct one Client per irc.Client, after the irc.Client has been constructed (NewClient
// only registers listeners; it does not itself connect).
type Client struct {
	ClientName    string
	ClientVersion string

	irc *irc.Client

	mu      sync.Mutex
	pending map[string]time.Time

	OnAction    irc.Emitter[ActionEvent]
	OnPingReply irc.Emitter[PingReplyEvent]
}

// NewClient wires CTCP handling onto c: ctcpName and ctcpVersion are reported in reply to a
// VERSION query.
func NewClient(c *irc.Client, ctcpName, ctcpVersion string) *Client {
	ctc := &Client{
		ClientName:    ctcpName,
		ClientVersion: ctcpVersion,
		irc:           c,
		pending:       make(map[string]time.Time),
	}
	c.OnCTCPQuery.On(ctc.handleQuery)
	c.OnCTCPReply.On(ctc.handleReply)
	return ctc
}

// Ping sends a CTCP PING query to target, tagging it with a unique token so the eventual
// reply can be matched back to this call and timed.
func (ctc *Client) Ping(target string) error {
	id := uuid.NewString()
	ctc.mu.Lock()
	ctc.pending[id] = time.Now()
	ctc.mu.Unlock()
	return ctc.irc.SendCTCP(target, "PING", id)
}

// Describe sends a CTCP ACTION (the conventional "/me" message) to target.
func (ctc *Client) Describe(target, action string) error {
	return ctc.irc.SendCTCP(target, "ACTION", action)
}

func (ctc *Client) handleQuery(e irc.CTCPQueryEvent) {
	switch e.Tag {
	case "ACTION":
		if e.Source == nil {
			return
		}
		if e.Target != "" {
			// channel-directed actions are the channel's concern; nothing to do here.
			return
		}
		ctc.OnAction.Emit(ActionEvent{Source: e.Source, Text: e.Text})
	case "VERSION":
		_ = ctc.reply(e, "VERSION", fmt.Sprintf("%s:%s:go", ctc.ClientName, ctc.ClientVersion))
	case "PING":
		_ = ctc.reply(e, "PING", e.Text)
	case "TIME":
		_ = ctc.reply(e, "TIME", time.Now().Format(time.RFC1123))
	case "CLIENTINFO":
		_ = ctc.reply(e, "CLIENTINFO", "ACTION CLIENTINFO PING TIME VERSION")
	}
}

func (ctc *Client) reply(e irc.CTCPQueryEvent, tag, text string) error {
	if e.Source == nil {
		return nil
	}
	return ctc.irc.SendCTCPReply(e.Source.NickName, tag, text)
}

func (ctc *Client) handleReply(e irc.CTCPReplyEvent) {
	if e.Tag != "PING" {
		return
	}
	ctc.mu.Lock()
	sentAt, ok := ctc.pending[e.Text]
	if ok {
		delete(ctc.pending, e.Text)
	}
	ctc.mu.Unlock()
	if !ok {
		return
	}
	ctc.OnPingReply.Emit(PingReplyEvent{Source: e.Source, Latency: time.Since(sentAt)})
}
