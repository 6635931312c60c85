package irc

import "sync"

// Emitter is a minimal typed observer list: Subscribe(On) registers a callback, and the
// owning entity calls Emit to notify every listener, in registration order. It backs the
// per-entity event model described for Channel, User, LocalUser, and ChannelUser: rather
// than a single global event bus, each entity owns the Emitters for the events it can
// raise.
//
// Listeners are copied out from under the lock before being invoked so that a listener is
// free to register another listener (or unregister itself, in a future extension) without
// deadlocking, though it must not assume ordering relative to concurrent registrations.
type Emitter[T any] struct {
	mu        sync.Mutex
	listeners []func(T)
}

// On registers fn to be called for every future emit.
func (e *Emitter[T]) On(fn func(T)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Emit notifies every registered listener, in registration order. It is exported so that
// companion packages (such as ctcp) can raise events on their own Emitter-typed fields.
func (e *Emitter[T]) Emit(v T) {
	e.mu.Lock()
	fns := make([]func(T), len(e.listeners))
	copy(fns, e.listeners)
	e.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// ChannelUserJoinedEvent is emitted on a channel when a user (other than the local user)
// joins.
type ChannelUserJoinedEvent struct {
	ChannelUser *ChannelUser
}

// ChannelUserLeftEvent is emitted on a channel when a user parts.
type ChannelUserLeftEvent struct {
	ChannelUser *ChannelUser
	Comment     string
}

// ChannelUserQuitEvent is emitted on a channel for each member that disconnects from the
// server.
type ChannelUserQuitEvent struct {
	ChannelUser *ChannelUser
	Comment     string
}

// ChannelInviteEvent is emitted on a channel when a user is invited to it.
type ChannelInviteEvent struct {
	Source *User
	Invitee string
}

// ChannelUserKickedEvent is emitted on a channel when a member is kicked.
type ChannelUserKickedEvent struct {
	Source      *User
	ChannelUser *ChannelUser
	Reason      string
}

// ChannelTopicEvent is emitted when a channel's topic changes.
type ChannelTopicEvent struct {
	Source *User
	Topic  string
}

// ChannelModesEvent is emitted after a MODE command has been folded and applied to a
// channel (and/or its channel-users).
type ChannelModesEvent struct {
	Source  *User
	Changes []ModeChange
}

// ChannelActionEvent is emitted when a CTCP ACTION directed at a channel is received.
type ChannelActionEvent struct {
	Source *User
	Text   string
}

// PreviewMessageEvent is raised before a channel or user's Message event, giving a
// listener the opportunity to consume the message by setting Handled to true, in which
// case the normal Message event is suppressed. CTCP-tagged messages never reach this
// event; they are raised as CTCPQueryEvent or CTCPReplyEvent instead.
type PreviewMessageEvent struct {
	Source  *User
	Targets []string
	Text    string
	Handled *bool
}

// ChannelMessageEvent is emitted when an unhandled PRIVMSG targets a channel.
type ChannelMessageEvent struct {
	Source *User
	Text   string
}

// PreviewNoticeEvent mirrors PreviewMessageEvent for NOTICE.
type PreviewNoticeEvent struct {
	Source  *User
	Targets []string
	Text    string
	Handled *bool
}

// ChannelNoticeEvent is emitted when an unhandled NOTICE targets a channel.
type ChannelNoticeEvent struct {
	Source *User
	Text   string
}

// ChannelUserListEvent is emitted once RPL_ENDOFNAMES closes out a NAMES listing.
type ChannelUserListEvent struct{}

// ChannelTypeEvent is emitted when a channel's type (Public/Private/Secret) is learned,
// typically from RPL_NAMREPLY.
type ChannelTypeEvent struct {
	Type ChannelType
}

// ChannelBanListEvent is emitted once RPL_ENDOFBANLIST closes out a ban listing.
type ChannelBanListEvent struct {
	Entries []BanEntry
}

// JoinedChannelEvent is emitted on the local user when it joins a channel.
type JoinedChannelEvent struct {
	Channel *Channel
}

// PartedChannelEvent is emitted on the local user when it leaves a channel (by PART or
// KICK).
type PartedChannelEvent struct {
	Channel *Channel
}

// NickChangedEvent is emitted on the local user when its nickname changes.
type NickChangedEvent struct {
	OldNick string
	NewNick string
}

// LocalUserModesEvent is emitted when a MODE command targeting our own nick changes the
// local user's mode set. RPL_UMODEIS (221) has no handler and does not raise it.
type LocalUserModesEvent struct {
	Modes string
}

// KickedEvent is emitted on the local user when it is kicked from a channel.
type KickedEvent struct {
	Channel *Channel
	Source  *User
	Reason  string
}

// ChannelAssignedEvent is emitted on a ChannelUser once its Channel backreference is set.
type ChannelAssignedEvent struct {
	Channel *Channel
}

// ChannelUserModesEvent is emitted on a ChannelUser when its per-channel status modes
// change.
type ChannelUserModesEvent struct {
	Modes []ModeChange
}

// PrivateMessageEvent is emitted on the client when an unhandled PRIVMSG targets us
// directly rather than a channel.
type PrivateMessageEvent struct {
	Source *User
	Text   string
}

// PrivateNoticeEvent mirrors PrivateMessageEvent for NOTICE.
type PrivateNoticeEvent struct {
	Source *User
	Text   string
}

// CTCPQueryEvent is emitted when a CTCP-tagged PRIVMSG is received, in place of the normal
// Message/PrivateMessage event: Tag is the upper-cased CTCP command (e.g. "VERSION",
// "ACTION", "PING") and Text is its dequoted argument string.
type CTCPQueryEvent struct {
	Source  *User
	Target  string // the channel name, or "" for a message sent directly to us
	Tag     string
	Text    string
}

// CTCPReplyEvent is emitted when a CTCP-tagged NOTICE (a reply to a query we sent) is
// received.
type CTCPReplyEvent struct {
	Source *User
	Tag    string
	Text   string
}
