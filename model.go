package irc

import (
	"strings"
	"time"
)

// foldNick normalizes a nickname or channel name for case-insensitive comparison and
// table-key lookup. The core only implements ASCII case folding; RFC 1459 casemapping
// (which differs in its treatment of {}|^ vs []\~) is out of scope (spec.md §6).
func foldNick(s string) string {
	return strings.ToLower(s)
}

// ChannelType is the channel visibility advertised by RPL_NAMREPLY / RPL_LIST.
type ChannelType int

const (
	ChannelUnspecified ChannelType = iota
	ChannelPublic
	ChannelPrivate
	ChannelSecret
)

func (t ChannelType) String() string {
	switch t {
	case ChannelPublic:
		return "public"
	case ChannelPrivate:
		return "private"
	case ChannelSecret:
		return "secret"
	default:
		return "unspecified"
	}
}

// Server represents a peer named in a message prefix of the form "server.name", interned
// in the client's server table by its case-sensitive host name (spec.md §3).
type Server struct {
	HostName string
}

// User represents any nickname known to the client: either a regular network user or
// (embedded in LocalUser) our own connection. Identity is the nickname, compared
// case-insensitively.
type User struct {
	NickName     string
	UserName     string
	HostName     string
	RealName     string
	ServerName   string
	ServerInfo   string
	IsOnline     bool
	IsOperator   bool
	IsAway       bool
	AwayMessage  string
	IdleDuration time.Duration
	HopCount     int
}

// Is reports whether the user's nickname matches nick, case-insensitively.
func (u *User) Is(nick string) bool {
	return strings.EqualFold(u.NickName, nick)
}

// LocalUser is the single entity representing our own connection. It embeds a *User so
// that its identity lives in the same record interned in the client's user table
// (invariant I5: local_user is non-null iff the socket is connected).
type LocalUser struct {
	*User
	Modes map[byte]struct{}

	OnJoinedChannel Emitter[JoinedChannelEvent]
	OnPartedChannel Emitter[PartedChannelEvent]
	OnNickName      Emitter[NickChangedEvent]
	OnModes         Emitter[LocalUserModesEvent]
	OnKicked        Emitter[KickedEvent]
}

func newLocalUser(u *User) *LocalUser {
	return &LocalUser{User: u, Modes: make(map[byte]struct{})}
}

// HasMode reports whether mode is currently set on the local user.
func (lu *LocalUser) HasMode(mode byte) bool {
	_, ok := lu.Modes[mode]
	return ok
}

// modesChanged applies a user MODE string (e.g. "+i-w") to the local user's mode set and
// emits LocalUserModesEvent.
func (lu *LocalUser) modesChanged(modeString string) {
	add := true
	for i := 0; i < len(modeString); i++ {
		switch c := modeString[i]; c {
		case '+':
			add = true
		case '-':
			add = false
		default:
			if add {
				lu.Modes[c] = struct{}{}
			} else {
				delete(lu.Modes, c)
			}
		}
	}
	lu.OnModes.Emit(LocalUserModesEvent{Modes: modeString})
}

// ChannelUser is the membership record joining a Channel and a User, carrying per-channel
// status modes (e.g. operator 'o', voice 'v'). It never owns User or Channel.
type ChannelUser struct {
	User    *User
	Channel *Channel
	Modes   map[byte]struct{}

	OnChannelAssigned Emitter[ChannelAssignedEvent]
	OnModes           Emitter[ChannelUserModesEvent]
}

func newChannelUser(u *User, ch *Channel) *ChannelUser {
	cu := &ChannelUser{User: u, Channel: ch, Modes: make(map[byte]struct{})}
	cu.OnChannelAssigned.Emit(ChannelAssignedEvent{Channel: ch})
	return cu
}

// HasMode reports whether status mode is currently set for this member.
func (cu *ChannelUser) HasMode(mode byte) bool {
	_, ok := cu.Modes[mode]
	return ok
}

func (cu *ChannelUser) applyStatus(changes []ModeChange) {
	if len(changes) == 0 {
		return
	}
	for _, c := range changes {
		if c.Add {
			cu.Modes[c.Mode] = struct{}{}
		} else {
			delete(cu.Modes, c.Mode)
		}
	}
	cu.OnModes.Emit(ChannelUserModesEvent{Modes: changes})
}

// BanEntry is a single entry accumulated while processing a RPL_BANLIST (or exception/
// invite list) stream, flushed as a ChannelBanListEvent on the terminating numeric.
type BanEntry struct {
	Mask  string
	SetBy string
	SetAt time.Time
}

// Channel represents a joined or referenced channel, interned by name (case-insensitive).
type Channel struct {
	Name  string
	Topic string
	Type  ChannelType
	Modes map[byte]struct{}
	Users []*ChannelUser

	pendingBans []BanEntry

	OnUserJoinedChannel Emitter[ChannelUserJoinedEvent]
	OnUserLeftChannel   Emitter[ChannelUserLeftEvent]
	OnUserQuit          Emitter[ChannelUserQuitEvent]
	OnUserInvite        Emitter[ChannelInviteEvent]
	OnUserKicked        Emitter[ChannelUserKickedEvent]
	OnTopic             Emitter[ChannelTopicEvent]
	OnModes             Emitter[ChannelModesEvent]
	OnAction            Emitter[ChannelActionEvent]
	OnPreviewMessage    Emitter[PreviewMessageEvent]
	OnMessage           Emitter[ChannelMessageEvent]
	OnPreviewNotice     Emitter[PreviewNoticeEvent]
	OnNotice            Emitter[ChannelNoticeEvent]
	OnUserList          Emitter[ChannelUserListEvent]
	OnType              Emitter[ChannelTypeEvent]
	OnBanList           Emitter[ChannelBanListEvent]
}

func newChannel(name string) *Channel {
	return &Channel{Name: name, Modes: make(map[byte]struct{})}
}

// ChannelUser looks up the membership record for nick, matched case-insensitively, per
// invariant I2 (at most one ChannelUser per channel/user pair).
func (ch *Channel) ChannelUser(nick string) (*ChannelUser, bool) {
	for _, cu := range ch.Users {
		if cu.User.Is(nick) {
			return cu, true
		}
	}
	return nil, false
}

// userJoined adds cu to the channel's roster and emits UserJoinedChannel, unless a member
// for the same user already exists, in which case the call is a no-op (P7: idempotent
// join).
func (ch *Channel) userJoined(cu *ChannelUser) {
	if _, exists := ch.ChannelUser(cu.User.NickName); exists {
		return
	}
	ch.Users = append(ch.Users, cu)
	ch.OnUserJoinedChannel.Emit(ChannelUserJoinedEvent{ChannelUser: cu})
}

// userLeft removes the member matching nick (PART) and emits UserLeftChannel. It is a
// no-op if nick is not a member.
func (ch *Channel) userLeft(nick, comment string) *ChannelUser {
	cu := ch.removeUser(nick)
	if cu == nil {
		return nil
	}
	ch.OnUserLeftChannel.Emit(ChannelUserLeftEvent{ChannelUser: cu, Comment: comment})
	return cu
}

// userQuit removes the member matching nick (QUIT) and emits UserQuit.
func (ch *Channel) userQuit(nick, comment string) *ChannelUser {
	cu := ch.removeUser(nick)
	if cu == nil {
		return nil
	}
	ch.OnUserQuit.Emit(ChannelUserQuitEvent{ChannelUser: cu, Comment: comment})
	return cu
}

// userKicked removes the member matching nick (KICK) and emits UserKicked.
func (ch *Channel) userKicked(source *User, nick, reason string) *ChannelUser {
	cu := ch.removeUser(nick)
	if cu == nil {
		return nil
	}
	ch.OnUserKicked.Emit(ChannelUserKickedEvent{Source: source, ChannelUser: cu, Reason: reason})
	return cu
}

func (ch *Channel) removeUser(nick string) *ChannelUser {
	for i, cu := range ch.Users {
		if cu.User.Is(nick) {
			ch.Users = append(ch.Users[:i], ch.Users[i+1:]...)
			return cu
		}
	}
	return nil
}

// setTopic sets the channel topic and emits Topic.
func (ch *Channel) setTopic(source *User, topic string) {
	ch.Topic = topic
	ch.OnTopic.Emit(ChannelTopicEvent{Source: source, Topic: topic})
}

// modesChanged folds modeString/params using the server's status-mode and CHANMODES class
// configuration, applies the result to the channel (and to the referenced channel-users
// for status modes), and emits Modes once for the whole batch.
func (ch *Channel) modesChanged(source *User, modeString string, params []string, statusModes string, classes ChanModeClasses) error {
	changes, err := FoldModes(modeString, params, statusModes, classes)
	if err != nil {
		return err
	}
	var byUser = map[string][]ModeChange{}
	for _, c := range changes {
		if c.Status {
			byUser[c.Param] = append(byUser[c.Param], c)
			continue
		}
		if c.Add {
			ch.Modes[c.Mode] = struct{}{}
		} else {
			delete(ch.Modes, c.Mode)
		}
	}
	for nick, userChanges := range byUser {
		if cu, ok := ch.ChannelUser(nick); ok {
			cu.applyStatus(userChanges)
		}
	}
	ch.OnModes.Emit(ChannelModesEvent{Source: source, Changes: changes})
	return nil
}

// flushBans emits the accumulated ban/exception list entries as a single BanList event
// and clears the accumulation buffer, called on the list-terminating numeric (368, etc).
func (ch *Channel) flushBans() {
	entries := ch.pendingBans
	ch.pendingBans = nil
	ch.OnBanList.Emit(ChannelBanListEvent{Entries: entries})
}

// NetworkInfo aggregates the RPL_LUSER* (251-255) series into a single incrementally
// updated snapshot, emitted via the client-level NetworkInfo event after each update
// (spec.md §4.3: the server sends these independently, not only at connection's end).
type NetworkInfo struct {
	Users       int
	Services    int
	Servers     int
	Operators   int
	Unknown     int
	Channels    int
	ClientCount int
	ServerCount int
}

// StatsEntry is a single accumulated STATS reply line, tagged by StatKind, flushed as a
// ServerStatistics event on RPL_ENDOFSTATS.
type StatsEntry struct {
	Kind StatKind
	Line string
}
