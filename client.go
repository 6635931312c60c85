package irc

import (
	"bufio"
	"context"
	"encoding"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Registration carries the fields sent during connection registration (PASS?, NICK, USER)
// and used to seed the local user record once the socket is open.
type Registration struct {
	NickName  string // required
	UserName  string // required
	RealName  string // required
	Password  string // optional
	UserModes []byte // subset of {'w','i'}, folded into the numeric USER mode parameter
}

func (r Registration) validate() error {
	if r.NickName == "" {
		return errors.Wrap(ErrArgumentNull, "registration: NickName is required")
	}
	if r.UserName == "" {
		return errors.Wrap(ErrArgumentNull, "registration: UserName is required")
	}
	if r.RealName == "" {
		return errors.Wrap(ErrArgumentNull, "registration: RealName is required")
	}
	return nil
}

// ConnectionErrorEvent is emitted when the transport fails.
type ConnectionErrorEvent struct{ Err error }

// ConnectionClosedEvent is emitted when the socket closes, gracefully or otherwise.
type ConnectionClosedEvent struct{ HadError bool }

// PingEvent/PongEvent mirror the server's PING/PONG traffic.
type PingEvent struct{ Message string }
type PongEvent struct{ Message string }

// ErrorEvent is emitted for a server ERROR command.
type ErrorEvent struct{ Message string }

// ProtocolErrorEvent is emitted for any numeric reply in the 400-599 range.
type ProtocolErrorEvent struct {
	Code       string
	ErrorName  string
	Parameters []string
	Message    string
}

// ClientInfoEvent carries the fields of RPL_MYINFO (004).
type ClientInfoEvent struct {
	ServerName   string
	Version      string
	UserModes    string
	ChannelModes string
}

// ServerStatisticsEvent is emitted on RPL_ENDOFSTATS (219) with the accumulated entries.
type ServerStatisticsEvent struct{ Entries []StatsEntry }

// MotdEvent carries the accumulated MOTD lines, emitted on RPL_ENDOFMOTD (376).
type MotdEvent struct{ Lines []string }

// ServerVersionEvent carries RPL_VERSION (351)'s parsed fields.
type ServerVersionEvent struct {
	Version    string
	DebugLevel string
	Server     string
	Comments   string
}

// ServerTimeEvent carries RPL_TIME (391).
type ServerTimeEvent struct {
	Server string
	Time   string
}

// ChannelListEntry is a single RPL_LIST (322) line, accumulated until RPL_LISTEND (323).
type ChannelListEntry struct {
	Channel      string
	VisibleUsers int
	Topic        string
}

// ChannelListEvent is emitted on RPL_LISTEND with all accumulated entries.
type ChannelListEvent struct{ Channels []ChannelListEntry }

// WhoIsReplyEvent is emitted on RPL_ENDOFWHOIS (318).
type WhoIsReplyEvent struct{ User *User }

// WhoWasReplyEvent is emitted on RPL_ENDOFWHOWAS (369).
type WhoWasReplyEvent struct{ User *User }

// ClientNoticeEvent is emitted, rather than routing through a channel or user, for NOTICEs
// that target the literal "AUTH" pseudo-target (pre-registration notices) and for NOTICEs
// with no user source, such as notices sent by a server.
type ClientNoticeEvent struct{ Text string }

// InviteEvent is emitted when the local user is invited to a channel.
type InviteEvent struct {
	Source  *User
	Channel string
}

// Client manages a single connection to an IRC server: framing and parsing the wire
// protocol, dispatching messages to handlers that mutate the interned entity tables, and
// exposing the higher-level sender API.
//
// After Connect returns, the same Client may be connected again; its user, channel and
// server tables are kept between connections, not cleared.
type Client struct {
	// Addr is "host:port" to dial. Only used when DialFn is nil.
	Addr string

	// DialFn opens the transport. When nil, Client dials Addr with net.Dial("tcp", ...).
	// TLS and SASL negotiation are the caller's responsibility: supply a DialFn that
	// performs them and returns the resulting stream.
	DialFn func() (io.ReadWriteCloser, error)

	// Flood, if non-nil, paces the outbound drainer. A nil Flood disables pacing
	// (messages are written as fast as the connection accepts them).
	Flood *FloodPreventer

	// Log receives structured diagnostic output. If nil, a package-level logrus logger
	// is used.
	Log *logrus.Entry

	reg  Registration
	conn io.ReadWriteCloser

	out  chan *Message
	errC chan error
	wg   sync.WaitGroup

	users     map[string]*User
	channels  map[string]*Channel
	servers   map[string]*Server
	localUser *LocalUser

	channelUserModes         string
	channelUserModesPrefixes map[byte]byte
	chanModeClasses          ChanModeClasses
	chanTypes                string

	motdBuffer  []string
	statsBuffer []StatsEntry
	networkInfo NetworkInfo
	listBuffer  []ChannelListEntry
	whoWasCache map[string]*User

	OnConnecting       Emitter[struct{}]
	OnConnected        Emitter[struct{}]
	OnRegistered       Emitter[struct{}]
	OnConnectionError  Emitter[ConnectionErrorEvent]
	OnConnectionClosed Emitter[ConnectionClosedEvent]
	OnPing             Emitter[PingEvent]
	OnPong             Emitter[PongEvent]
	OnError            Emitter[ErrorEvent]
	OnProtocolError    Emitter[ProtocolErrorEvent]
	OnClientInfo       Emitter[ClientInfoEvent]
	OnNetworkInfo      Emitter[NetworkInfo]
	OnServerStatistics Emitter[ServerStatisticsEvent]
	OnMotd             Emitter[MotdEvent]
	OnServerVersion    Emitter[ServerVersionEvent]
	OnServerTime       Emitter[ServerTimeEvent]
	OnChannelList      Emitter[ChannelListEvent]
	OnWhoIsReply       Emitter[WhoIsReplyEvent]
	OnWhoWasReply      Emitter[WhoWasReplyEvent]
	OnClientNotice     Emitter[ClientNoticeEvent]
	OnInvite           Emitter[InviteEvent]

	OnPreviewPrivateMessage Emitter[PreviewMessageEvent]
	OnPrivateMessage        Emitter[PrivateMessageEvent]
	OnPreviewPrivateNotice  Emitter[PreviewNoticeEvent]
	OnPrivateNotice         Emitter[PrivateNoticeEvent]

	OnCTCPQuery Emitter[CTCPQueryEvent]
	OnCTCPReply Emitter[CTCPReplyEvent]

	dispatch map[string]handlerFunc
}

// NewClient constructs a Client that will dial addr ("host:port") on Connect.
func NewClient(addr string) *Client {
	c := &Client{
		Addr:                     addr,
		users:                    make(map[string]*User),
		channels:                 make(map[string]*Channel),
		servers:                  make(map[string]*Server),
		whoWasCache:              make(map[string]*User),
		channelUserModesPrefixes: make(map[byte]byte),
		chanModeClasses:          defaultChanModeClasses,
		chanTypes:                "#&",
	}
	c.dispatch = buildDispatchTable()
	return c
}

func (c *Client) log() *logrus.Entry {
	if c.Log != nil {
		return c.Log
	}
	return logrus.WithField("component", "irc")
}

// LocalUser returns the entity representing our own connection, or nil if not connected.
func (c *Client) LocalUser() *LocalUser { return c.localUser }

// Connect dials the server, performs registration (PASS?/NICK/USER), and runs the client's
// read/dispatch/drain loops until the connection closes or ctx is canceled. It blocks until
// the connection ends.
func (c *Client) Connect(ctx context.Context, reg Registration) error {
	if err := reg.validate(); err != nil {
		return err
	}
	if c.conn != nil {
		return errors.Wrap(ErrInvalidOperation, "client already has a connection")
	}
	c.reg = reg

	c.OnConnecting.Emit(struct{}{})

	dial := c.DialFn
	if dial == nil {
		if c.Addr == "" {
			return errors.Wrap(ErrArgumentNull, "Connect: Addr cannot be empty when DialFn is nil")
		}
		dial = func() (io.ReadWriteCloser, error) {
			return net.Dial("tcp", c.Addr)
		}
	}

	conn, err := dial()
	if err != nil {
		c.OnConnectionError.Emit(ConnectionErrorEvent{Err: err})
		return errors.Wrap(ErrTransport, err.Error())
	}
	c.conn = conn
	c.out = make(chan *Message, 64)
	c.errC = make(chan error, 1)

	user := &User{NickName: reg.NickName, UserName: reg.UserName, RealName: reg.RealName, IsOnline: true}
	c.localUser = newLocalUser(user)
	c.users[foldNick(user.NickName)] = user

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.readLoop(runCtx)
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.drainLoop(runCtx)
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case <-ctx.Done():
			c.Disconnect()
		case <-runCtx.Done():
		}
	}()

	c.OnConnected.Emit(struct{}{})

	if reg.Password != "" {
		c.sendNow(NewMessage(CmdPass, reg.Password))
	}
	c.sendNow(NewMessage(CmdNick, reg.NickName))
	c.sendNow(NewMessage(CmdUser, reg.UserName, fmt.Sprint(NumericUserMode(reg.UserModes)), "*", reg.RealName))

	var runErr error
	select {
	case runErr = <-c.errC:
	case <-runCtx.Done():
	}
	cancel()
	c.wg.Wait()

	hadError := runErr != nil && runErr != io.EOF
	c.OnConnectionClosed.Emit(ConnectionClosedEvent{HadError: hadError})
	c.localUser = nil
	c.conn = nil

	if runErr == io.EOF {
		return nil
	}
	return runErr
}

// Disconnect performs a hard, immediate transport close. Any queued outbound messages are
// discarded.
func (c *Client) Disconnect() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.exit(io.EOF)
}

func (c *Client) exit(err error) {
	select {
	case c.errC <- err:
	default:
	}
}

func (c *Client) readLoop(ctx context.Context) {
	s := bufio.NewScanner(c.conn)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	for s.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		m := new(Message)
		m.IncludePrefix()
		if err := m.UnmarshalText(line); err != nil {
			c.log().WithError(err).Warn("discarding unparseable line")
			continue
		}
		c.dispatchMessage(m)
	}
	if err := s.Err(); err != nil {
		c.OnConnectionError.Emit(ConnectionErrorEvent{Err: err})
		c.exit(errors.Wrap(ErrTransport, err.Error()))
		return
	}
	c.exit(io.EOF)
}

func (c *Client) drainLoop(ctx context.Context) {
	const minTick = 50 * time.Millisecond
	t := time.NewTimer(minTick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

	drain:
		for {
			if c.Flood != nil {
				if d := c.Flood.SendDelay(); d > 0 {
					if d < minTick {
						d = minTick
					}
					t.Reset(d)
					break drain
				}
			}
			select {
			case m, ok := <-c.out:
				if !ok {
					return
				}
				c.writeNow(m)
				if c.Flood != nil {
					c.Flood.MessageSent()
				}
			default:
				t.Reset(minTick)
				break drain
			}
		}
	}
}

func (c *Client) writeNow(m encoding.TextMarshaler) {
	b, err := m.MarshalText()
	if err != nil {
		if !errors.Is(err, warnTruncate) {
			c.log().WithError(err).Warn("marshal outbound message")
			return
		}
		c.log().WithError(err).Warn("outbound message may be truncated")
	}
	if len(b) < 2 || string(b[len(b)-2:]) != "\r\n" {
		b = append(b, '\r', '\n')
	}
	if _, err := c.conn.Write(b); err != nil {
		c.exit(errors.Wrap(ErrTransport, err.Error()))
	}
}

// sendNow writes a message immediately, bypassing the pacing queue. Used for the
// registration messages (PASS, NICK, USER) and for PONG replies, which must not be subject
// to flood pacing.
func (c *Client) sendNow(m *Message) {
	c.writeNow(m)
}

// SendRaw writes line through the pacing queue verbatim.
func (c *Client) SendRaw(line string) error {
	if line == "" {
		return errors.Wrap(ErrArgumentNull, "SendRaw: line is empty")
	}
	m := new(Message)
	if err := m.UnmarshalText([]byte(line)); err != nil {
		return errors.Wrap(ErrArgument, err.Error())
	}
	return c.enqueue(m)
}

func (c *Client) enqueue(m *Message) error {
	if c.out == nil {
		return errors.Wrap(ErrInvalidOperation, "not connected")
	}
	select {
	case c.out <- m:
		return nil
	default:
		return errors.Wrap(ErrInvalidOperation, "outbound queue full")
	}
}

func (c *Client) send(m *Message) error { return c.enqueue(m) }

// --- interning finders (create-or-return, insert on miss) ---

// GetUserFromNick returns the canonical *User for nick, creating and interning a new
// record if one does not already exist.
func (c *Client) GetUserFromNick(nick string) *User {
	key := foldNick(nick)
	if u, ok := c.users[key]; ok {
		return u
	}
	u := &User{NickName: nick, IsOnline: true}
	c.users[key] = u
	return u
}

// GetChannelFromName returns the canonical *Channel for name, creating and interning a new
// record if one does not already exist.
func (c *Client) GetChannelFromName(name string) *Channel {
	key := foldNick(name)
	if ch, ok := c.channels[key]; ok {
		return ch
	}
	ch := newChannel(name)
	c.channels[key] = ch
	return ch
}

// GetServerFromHost returns the canonical *Server for host (compared case-sensitively),
// creating and interning a new record if one does not already exist.
func (c *Client) GetServerFromHost(host string) *Server {
	if s, ok := c.servers[host]; ok {
		return s
	}
	s := &Server{HostName: host}
	c.servers[host] = s
	return s
}

func (c *Client) findUser(nick string) (*User, bool) {
	u, ok := c.users[foldNick(nick)]
	return u, ok
}

func (c *Client) findChannel(name string) (*Channel, bool) {
	ch, ok := c.channels[foldNick(name)]
	return ch, ok
}

// removeUser drops a user from the interning table. Callers must already have removed all
// of the user's channel memberships.
func (c *Client) removeUser(nick string) {
	delete(c.users, foldNick(nick))
}

func (c *Client) removeChannel(name string) {
	delete(c.channels, foldNick(name))
}

// resolveSource classifies a parsed message Prefix: nick!user@host and nick@host resolve
// (and intern) a user; a bare host-like token resolves (and interns) a server; anything
// else resolves a user by bare nick. A zero Prefix resolves to nil.
func (c *Client) resolveSource(p Prefix) interface{} {
	switch {
	case p.Nick == "" && p.User == "" && p.Host == "":
		return nil
	case p.IsServer():
		return c.GetServerFromHost(p.Host)
	default:
		u := c.GetUserFromNick(p.Nick.String())
		if p.User != "" {
			u.UserName = p.User
		}
		if p.Host != "" {
			u.HostName = p.Host
		}
		return u
	}
}

func (c *Client) dispatchMessage(m *Message) {
	var source *User
	if resolved := c.resolveSource(m.Source); resolved != nil {
		if u, ok := resolved.(*User); ok {
			source = u
		}
	}

	if IsErrorCode(m.Command.String()) {
		c.OnProtocolError.Emit(ProtocolErrorEvent{
			Code:       m.Command.String(),
			ErrorName:  ReplyName(m.Command.String()),
			Parameters: append([]string(nil), m.Params...),
			Message:    m.Params.Get(len(m.Params)),
		})
		return
	}

	h, ok := c.dispatch[m.Command.String()]
	if !ok {
		if name := ReplyName(m.Command.String()); name != "" {
			c.log().WithField("command", name).Debug("unhandled numeric")
		} else {
			c.log().WithField("command", m.Command.String()).Debug("unknown command")
		}
		return
	}
	h(c, source, m)
}

// --- sender API ---

// JoinChannel sends a JOIN for name.
func (c *Client) JoinChannel(name string) error {
	if name == "" {
		return errors.Wrap(ErrArgumentNull, "JoinChannel: name is empty")
	}
	return c.send(NewMessage(CmdJoin, name))
}

// LeaveChannel sends a PART for name, with an optional comment.
func (c *Client) LeaveChannel(name string, comment ...string) error {
	if name == "" {
		return errors.Wrap(ErrArgumentNull, "LeaveChannel: name is empty")
	}
	if len(comment) > 0 && comment[0] != "" {
		return c.send(NewMessage(CmdPart, name, comment[0]))
	}
	return c.send(NewMessage(CmdPart, name))
}

// SetNick sends a NICK command requesting a nickname change.
func (c *Client) SetNick(nick string) error {
	if nick == "" {
		return errors.Wrap(ErrArgumentNull, "SetNick: nick is empty")
	}
	return c.send(NewMessage(CmdNick, nick))
}

// SetTopic sends a TOPIC command setting channel's topic.
func (c *Client) SetTopic(channel, topic string) error {
	if channel == "" {
		return errors.Wrap(ErrArgumentNull, "SetTopic: channel is empty")
	}
	return c.send(NewMessage(CmdTopic, channel, topic))
}

// Kick sends a KICK command removing nicks from channel.
func (c *Client) Kick(channel string, nicks []string, reason ...string) error {
	if channel == "" || len(nicks) == 0 {
		return errors.Wrap(ErrArgumentNull, "Kick: channel and at least one nick are required")
	}
	targets := joinComma(nicks)
	if len(reason) > 0 && reason[0] != "" {
		return c.send(NewMessage(CmdKick, channel, targets, reason[0]))
	}
	return c.send(NewMessage(CmdKick, channel, targets))
}

// Invite sends an INVITE for nick to channel.
func (c *Client) Invite(nick, channel string) error {
	if nick == "" || channel == "" {
		return errors.Wrap(ErrArgumentNull, "Invite: nick and channel are required")
	}
	return c.send(NewMessage(CmdInvite, nick, channel))
}

// GetChannelModes requests the current modes of channel (MODE with no flags).
func (c *Client) GetChannelModes(channel string) error {
	if channel == "" {
		return errors.Wrap(ErrArgumentNull, "GetChannelModes: channel is empty")
	}
	return c.send(NewMessage(CmdMode, channel))
}

// SetChannelModes sends a MODE command applying modeString (e.g. "+o") with params to
// channel.
func (c *Client) SetChannelModes(channel, modeString string, params ...string) error {
	if channel == "" || modeString == "" {
		return errors.Wrap(ErrArgumentNull, "SetChannelModes: channel and modeString are required")
	}
	args := append([]string{channel, modeString}, params...)
	return c.send(NewMessage(CmdMode, args...))
}

// SendMessage sends text as a PRIVMSG to every target in targets.
func (c *Client) SendMessage(targets []string, text string) error {
	if len(targets) == 0 {
		return errors.Wrap(ErrArgumentNull, "SendMessage: targets is empty")
	}
	return c.send(NewMessage(CmdPrivmsg, joinComma(targets), text))
}

// SendNotice sends text as a NOTICE to every target in targets.
func (c *Client) SendNotice(targets []string, text string) error {
	if len(targets) == 0 {
		return errors.Wrap(ErrArgumentNull, "SendNotice: targets is empty")
	}
	return c.send(NewMessage(CmdNotice, joinComma(targets), text))
}

// Quit sends a QUIT; the connection terminates once the server acknowledges it. This does
// not itself close the socket.
func (c *Client) Quit(comment ...string) error {
	if len(comment) > 0 {
		return c.send(NewMessage(CmdQuit, comment[0]))
	}
	return c.send(NewMessage(CmdQuit))
}

// Ping sends a PING with the given token.
func (c *Client) Ping(token string) error {
	return c.send(NewMessage(CmdPing, token))
}

// QueryWho sends a WHO query for mask.
func (c *Client) QueryWho(mask string) error {
	return c.send(NewMessage(CmdWho, mask))
}

// QueryWhoIs sends a WHOIS query for nick.
func (c *Client) QueryWhoIs(nick string) error {
	if nick == "" {
		return errors.Wrap(ErrArgumentNull, "QueryWhoIs: nick is empty")
	}
	return c.send(NewMessage(CmdWhoIs, nick))
}

// QueryWhoWas sends a WHOWAS query for nick.
func (c *Client) QueryWhoWas(nick string) error {
	if nick == "" {
		return errors.Wrap(ErrArgumentNull, "QueryWhoWas: nick is empty")
	}
	return c.send(NewMessage(CmdWhoWas, nick))
}

// ListChannels sends a LIST query, optionally restricted to names.
func (c *Client) ListChannels(names ...string) error {
	if len(names) == 0 {
		return c.send(NewMessage(CmdList))
	}
	return c.send(NewMessage(CmdList, joinComma(names)))
}

// GetMotd requests the server's message of the day.
func (c *Client) GetMotd() error { return c.send(NewMessage(CmdMOTD)) }

// GetNetworkInfo requests LUSERS statistics.
func (c *Client) GetNetworkInfo() error { return c.send(NewMessage(CmdLUsers)) }

// GetServerVersion requests the server's VERSION.
func (c *Client) GetServerVersion() error { return c.send(NewMessage(CmdVersion)) }

// GetServerStats requests STATS for query.
func (c *Client) GetServerStats(query string) error {
	if query == "" {
		return errors.Wrap(ErrArgumentNull, "GetServerStats: query is empty")
	}
	return c.send(NewMessage(CmdStats, query))
}

// GetServerLinks requests LINKS.
func (c *Client) GetServerLinks() error { return c.send(NewMessage(CmdLinks)) }

// GetServerTime requests TIME.
func (c *Client) GetServerTime() error { return c.send(NewMessage(CmdTime)) }

// SendCTCP sends a CTCP query tagged with command to target.
func (c *Client) SendCTCP(target, command, text string) error {
	if target == "" || command == "" {
		return errors.Wrap(ErrArgumentNull, "SendCTCP: target and command are required")
	}
	return c.send(NewMessage(CmdPrivmsg, target, encodeCTCP(command, text)))
}

// SendCTCPReply sends a CTCP reply tagged with command to target, which should be the
// nickname that sent the original query.
func (c *Client) SendCTCPReply(target, command, text string) error {
	if target == "" || command == "" {
		return errors.Wrap(ErrArgumentNull, "SendCTCPReply: target and command are required")
	}
	return c.send(NewMessage(CmdNotice, target, encodeCTCP(command, text)))
}

// isChannelName reports whether name begins with one of the server's CHANTYPES characters.
func (c *Client) isChannelName(name string) bool {
	return len(name) > 0 && strings.IndexByte(c.chanTypes, name[0]) >= 0
}

// stripStatusPrefix removes a leading STATUSMSG membership-prefix character (one of the
// server's PREFIX symbols) from a message target, e.g. "+#foo" -> "#foo".
func (c *Client) stripStatusPrefix(target string) string {
	if len(target) < 2 {
		return target
	}
	if _, ok := c.channelUserModesPrefixes[target[0]]; ok {
		return target[1:]
	}
	return target
}

func joinComma(ss []string) string {
	out := ss[0]
	for _, s := range ss[1:] {
		out += "," + s
	}
	return out
}
