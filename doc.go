/*
Package irc provides an IRC client implementation: a line codec, a domain model of
servers, users, channels and their memberships, a fixed command/numeric dispatch table,
flood-prevention output pacing, and a low-level CTCP framing layer. The higher-level
CTCP sub-protocol (automatic VERSION/PING/TIME/CLIENTINFO replies and ACTION handling)
lives in the sibling ctcp package.

API

These are the main types you will interact with while using this package:

	// Message represents any incoming or outgoing IRC line. It satisfies
	// encoding.TextMarshaler/TextUnmarshaler.
	type Message struct {
		Source  Prefix
		Command Command
		Params  Params
	}

	// A Client manages a single connection: registration, the interned entity tables
	// (users, channels, servers), flood-paced sending, and dispatch of parsed messages
	// onto typed Emitters.
	type Client struct {
		// ...
	}

	// Connect dials (via DialFn, defaulting to a plain TCP dial), registers with reg,
	// and runs the client until ctx is cancelled or the connection is lost.
	func (c *Client) Connect(ctx context.Context, reg Registration) error {
		// ...
	}

Events

Rather than a single Handler callback, each domain entity (Client, Channel, User,
LocalUser, ChannelUser) exposes typed Emitter fields — OnMessage, OnJoinedChannel, OnNickName,
and so on — that calling code subscribes to with On. Dispatch runs synchronously on the
client's read goroutine, in listener-registration order.

Encoding and decoding

The Message type can marshal and unmarshal itself to and from a raw line of
IRC-formatted text. If you only want IRC parsing and encoding, you can use this type on
its own without a Client.

Request lifecycle

  - Connect dials the stream via DialFn and sends the registration sequence
    (PASS, if set; NICK; USER), bypassing the flood pacer so the handshake is not
    queued behind application traffic.
  - A read goroutine scans lines from the connection, unmarshals each into a Message,
    resolves its source against the interned entity tables, and dispatches it through
    the command/numeric table in dispatch.go.
  - A drain goroutine paces outbound messages (queued via SendMessage, JoinChannel, and
    the rest of the sender API) against the FloodPreventer before writing them.
  - Disconnect, context cancellation, or a transport error stops both goroutines and
    emits OnConnectionClosed/OnConnectionError.
*/
package irc
