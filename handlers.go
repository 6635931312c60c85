package irc

import (
	"regexp"
	"strconv"
	"strings"
)

// handleIgnored acknowledges a numeric with no further client-visible effect.
func handleIgnored(c *Client, source *User, m *Message) {}

var welcomeAddress = regexp.MustCompile(`^([^!@]+)!(.+?)@(.+)?$`)

// handleWelcome processes RPL_WELCOME (001), which completes registration and is the only
// reliable place to learn our nickname, user, and host as the server sees them.
func handleWelcome(c *Client, source *User, m *Message) {
	fields := strings.Fields(m.Params.Get(len(m.Params)))
	if len(fields) > 0 {
		if parts := welcomeAddress.FindStringSubmatch(fields[len(fields)-1]); parts != nil {
			c.localUser.NickName = parts[1]
			c.localUser.UserName = parts[2]
			c.localUser.HostName = parts[3]
			delete(c.users, foldNick(c.reg.NickName))
			c.users[foldNick(c.localUser.NickName)] = c.localUser.User
		}
	}
	c.OnRegistered.Emit(struct{}{})
}

// handleMyInfo processes RPL_MYINFO (004).
func handleMyInfo(c *Client, source *User, m *Message) {
	c.OnClientInfo.Emit(ClientInfoEvent{
		ServerName:   m.Params.Get(2),
		Version:      m.Params.Get(3),
		UserModes:    m.Params.Get(4),
		ChannelModes: m.Params.Get(5),
	})
}

// handleISupport processes RPL_ISUPPORT (005), learning CHANTYPES, PREFIX, and CHANMODES
// so that later MODE/NAMES/LIST processing can be class- and prefix-aware.
func handleISupport(c *Client, source *User, m *Message) {
	if len(m.Params) < 2 {
		return
	}
	for _, tok := range m.Params[1 : len(m.Params)-1] {
		key, val, hasVal := strings.Cut(tok, "=")
		if !hasVal {
			continue
		}
		switch key {
		case "CHANTYPES":
			c.chanTypes = val
		case "PREFIX":
			if len(val) > 0 && val[0] == '(' {
				if idx := strings.IndexByte(val, ')'); idx > 0 {
					modes := val[1:idx]
					symbols := val[idx+1:]
					c.channelUserModes = modes
					for i := 0; i < len(modes) && i < len(symbols); i++ {
						c.channelUserModesPrefixes[symbols[i]] = modes[i]
					}
				}
			}
		case "CHANMODES":
			parts := strings.Split(val, ",")
			var classes ChanModeClasses
			if len(parts) > 0 {
				classes.A = parts[0]
			}
			if len(parts) > 1 {
				classes.B = parts[1]
			}
			if len(parts) > 2 {
				classes.C = parts[2]
			}
			if len(parts) > 3 {
				classes.D = parts[3]
			}
			c.chanModeClasses = classes
		}
	}
}

// handleStats accumulates one STATS reply line (211-217, 242-244) until RPL_ENDOFSTATS.
func handleStats(c *Client, source *User, m *Message) {
	line := strings.Join(m.Params[1:], " ")
	c.statsBuffer = append(c.statsBuffer, StatsEntry{
		Kind: ClassifyStat(m.Command.String()),
		Line: line,
	})
}

// handleEndOfStats flushes the accumulated STATS entries (spec.md-style RPL_ENDOFSTATS).
func handleEndOfStats(c *Client, source *User, m *Message) {
	entries := c.statsBuffer
	c.statsBuffer = nil
	c.OnServerStatistics.Emit(ServerStatisticsEvent{Entries: entries})
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// The RPL_LUSER* series (251-255) is sent independently by the server, so NetworkInfo is
// updated and re-emitted incrementally rather than buffered to a single terminating reply.
func handleLUserClient(c *Client, source *User, m *Message) {
	var counts []int
	for _, f := range strings.Fields(m.Params.Get(len(m.Params))) {
		if n, err := strconv.Atoi(f); err == nil {
			counts = append(counts, n)
		}
	}
	if len(counts) > 0 {
		c.networkInfo.Users = counts[0]
	}
	if len(counts) > 1 {
		c.networkInfo.Services = counts[1]
	}
	if len(counts) > 2 {
		c.networkInfo.Servers = counts[2]
	}
	c.OnNetworkInfo.Emit(c.networkInfo)
}

func handleLUserOp(c *Client, source *User, m *Message) {
	c.networkInfo.Operators = atoiOrZero(m.Params.Get(1))
	c.OnNetworkInfo.Emit(c.networkInfo)
}

func handleLUserUnknown(c *Client, source *User, m *Message) {
	c.networkInfo.Unknown = atoiOrZero(m.Params.Get(1))
	c.OnNetworkInfo.Emit(c.networkInfo)
}

func handleLUserChannels(c *Client, source *User, m *Message) {
	c.networkInfo.Channels = atoiOrZero(m.Params.Get(1))
	c.OnNetworkInfo.Emit(c.networkInfo)
}

func handleLUserMe(c *Client, source *User, m *Message) {
	fields := strings.Fields(m.Params.Get(len(m.Params)))
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			if c.networkInfo.ClientCount == 0 {
				c.networkInfo.ClientCount = n
			} else {
				c.networkInfo.ServerCount = n
			}
		}
	}
	c.OnNetworkInfo.Emit(c.networkInfo)
}

func handleAway(c *Client, source *User, m *Message) {
	u := c.GetUserFromNick(m.Params.Get(1))
	u.IsAway = true
	u.AwayMessage = m.Params.Get(2)
}

func handleWhoIsUser(c *Client, source *User, m *Message) {
	u := c.GetUserFromNick(m.Params.Get(1))
	u.UserName = m.Params.Get(2)
	u.HostName = m.Params.Get(3)
	u.RealName = m.Params.Get(5)
}

func handleWhoIsServer(c *Client, source *User, m *Message) {
	u := c.GetUserFromNick(m.Params.Get(1))
	u.ServerName = m.Params.Get(2)
	u.ServerInfo = m.Params.Get(3)
}

func handleWhoIsOperator(c *Client, source *User, m *Message) {
	c.GetUserFromNick(m.Params.Get(1)).IsOperator = true
}

func handleWhoIsIdle(c *Client, source *User, m *Message) {
	secs := atoiOrZero(m.Params.Get(2))
	c.GetUserFromNick(m.Params.Get(1)).IdleDuration = secondsToDuration(secs)
}

func handleWhoIsChannels(c *Client, source *User, m *Message) {
	// the channel list itself is informational only; membership is learned authoritatively
	// from JOIN/NAMES. Nothing to store on the interned User beyond what's already tracked.
}

func handleEndOfWhoIs(c *Client, source *User, m *Message) {
	u, ok := c.findUser(m.Params.Get(1))
	if !ok {
		return
	}
	c.OnWhoIsReply.Emit(WhoIsReplyEvent{User: u})
}

func handleWhoWasUser(c *Client, source *User, m *Message) {
	nick := m.Params.Get(1)
	key := foldNick(nick)
	u, ok := c.whoWasCache[key]
	if !ok {
		u = &User{NickName: nick}
		c.whoWasCache[key] = u
	}
	u.UserName = m.Params.Get(2)
	u.HostName = m.Params.Get(3)
	u.RealName = m.Params.Get(5)
}

func handleEndOfWhoWas(c *Client, source *User, m *Message) {
	u, ok := c.whoWasCache[foldNick(m.Params.Get(1))]
	if !ok {
		return
	}
	c.OnWhoWasReply.Emit(WhoWasReplyEvent{User: u})
}

func handleWhoReply(c *Client, source *User, m *Message) {
	u := c.GetUserFromNick(m.Params.Get(5))
	u.UserName = m.Params.Get(2)
	u.HostName = m.Params.Get(3)
	u.ServerName = m.Params.Get(4)
	flags := m.Params.Get(6)
	u.IsAway = strings.HasPrefix(flags, "G")
	u.IsOperator = strings.Contains(flags, "*")
	rest := strings.SplitN(m.Params.Get(len(m.Params)), " ", 2)
	if len(rest) == 2 {
		u.HopCount = atoiOrZero(rest[0])
		u.RealName = rest[1]
	}
}

func handleList(c *Client, source *User, m *Message) {
	c.listBuffer = append(c.listBuffer, ChannelListEntry{
		Channel:      m.Params.Get(1),
		VisibleUsers: atoiOrZero(m.Params.Get(2)),
		Topic:        m.Params.Get(3),
	})
}

func handleListEnd(c *Client, source *User, m *Message) {
	entries := c.listBuffer
	c.listBuffer = nil
	c.OnChannelList.Emit(ChannelListEvent{Channels: entries})
}

func handleChannelModeIs(c *Client, source *User, m *Message) {
	if len(m.Params) < 2 {
		return
	}
	ch := c.GetChannelFromName(m.Params.Get(1))
	modeString, rest := SplitModeParams(m.Params[1:])
	_ = ch.modesChanged(nil, modeString, rest, c.channelUserModes, c.chanModeClasses)
}

func handleNoTopic(c *Client, source *User, m *Message) {
	ch := c.GetChannelFromName(m.Params.Get(1))
	ch.Topic = ""
}

func handleTopicReply(c *Client, source *User, m *Message) {
	ch := c.GetChannelFromName(m.Params.Get(1))
	ch.Topic = m.Params.Get(2)
}

func handleBanList(c *Client, source *User, m *Message) {
	ch := c.GetChannelFromName(m.Params.Get(1))
	entry := BanEntry{Mask: m.Params.Get(2), SetBy: m.Params.Get(3)}
	if secs := m.Params.Get(4); secs != "" {
		entry.SetAt = secondsSinceEpoch(atoiOrZero(secs))
	}
	ch.pendingBans = append(ch.pendingBans, entry)
}

func handleInviteList(c *Client, source *User, m *Message) {
	ch := c.GetChannelFromName(m.Params.Get(1))
	ch.pendingBans = append(ch.pendingBans, BanEntry{Mask: m.Params.Get(2)})
}

func handleEndOfBanList(c *Client, source *User, m *Message) {
	ch := c.GetChannelFromName(m.Params.Get(1))
	ch.flushBans()
}

func handleVersion(c *Client, source *User, m *Message) {
	versionDebug := m.Params.Get(1)
	version, debugLevel, _ := strings.Cut(versionDebug, ".")
	c.OnServerVersion.Emit(ServerVersionEvent{
		Version:    version,
		DebugLevel: debugLevel,
		Server:     m.Params.Get(2),
		Comments:   m.Params.Get(3),
	})
}

func handleNamReply(c *Client, source *User, m *Message) {
	if len(m.Params) < 3 {
		return
	}
	ch := c.GetChannelFromName(m.Params.Get(2))
	switch m.Params.Get(1) {
	case "=":
		ch.Type = ChannelPublic
	case "*":
		ch.Type = ChannelPrivate
	case "@":
		ch.Type = ChannelSecret
	}
	ch.OnType.Emit(ChannelTypeEvent{Type: ch.Type})

	for _, tok := range strings.Fields(m.Params.Get(len(m.Params))) {
		var statusModes []byte
		for len(tok) > 0 {
			mode, ok := c.channelUserModesPrefixes[tok[0]]
			if !ok {
				break
			}
			statusModes = append(statusModes, mode)
			tok = tok[1:]
		}
		if tok == "" {
			continue
		}
		u := c.GetUserFromNick(tok)
		cu, exists := ch.ChannelUser(tok)
		if !exists {
			cu = newChannelUser(u, ch)
			ch.userJoined(cu)
		}
		for _, mode := range statusModes {
			cu.Modes[mode] = struct{}{}
		}
	}
}

func handleEndOfNames(c *Client, source *User, m *Message) {
	ch := c.GetChannelFromName(m.Params.Get(1))
	ch.OnUserList.Emit(ChannelUserListEvent{})
}

func handleMotdLine(c *Client, source *User, m *Message) {
	c.motdBuffer = append(c.motdBuffer, m.Params.Get(len(m.Params)))
}

func handleEndOfMotd(c *Client, source *User, m *Message) {
	lines := c.motdBuffer
	c.motdBuffer = nil
	c.OnMotd.Emit(MotdEvent{Lines: lines})
}

func handleTime(c *Client, source *User, m *Message) {
	c.OnServerTime.Emit(ServerTimeEvent{Server: m.Params.Get(1), Time: m.Params.Get(len(m.Params))})
}

// --- non-numeric commands ---

func handleNick(c *Client, source *User, m *Message) {
	if source == nil {
		return
	}
	oldNick := source.NickName
	newNick := m.Params.Get(1)
	delete(c.users, foldNick(oldNick))
	source.NickName = newNick
	c.users[foldNick(newNick)] = source

	if c.localUser != nil && source == c.localUser.User {
		c.localUser.OnNickName.Emit(NickChangedEvent{OldNick: oldNick, NewNick: newNick})
	}
}

func handleQuit(c *Client, source *User, m *Message) {
	if source == nil {
		return
	}
	comment := m.Params.Get(1)
	for _, ch := range c.channels {
		if _, ok := ch.ChannelUser(source.NickName); ok {
			ch.userQuit(source.NickName, comment)
		}
	}
	c.removeUser(source.NickName)
}

func handleJoin(c *Client, source *User, m *Message) {
	if source == nil || len(m.Params) < 1 {
		return
	}
	for _, name := range strings.Split(m.Params.Get(1), ",") {
		if name == "" {
			continue
		}
		ch := c.GetChannelFromName(name)
		cu := newChannelUser(source, ch)
		if c.localUser != nil && source == c.localUser.User {
			if _, exists := ch.ChannelUser(source.NickName); !exists {
				ch.Users = append(ch.Users, cu)
			}
			c.localUser.OnJoinedChannel.Emit(JoinedChannelEvent{Channel: ch})
			continue
		}
		ch.userJoined(cu)
	}
}

func handlePart(c *Client, source *User, m *Message) {
	if source == nil {
		return
	}
	reason := m.Params.Get(2)
	for _, name := range strings.Split(m.Params.Get(1), ",") {
		if name == "" {
			continue
		}
		ch, ok := c.findChannel(name)
		if !ok {
			continue
		}
		ch.userLeft(source.NickName, reason)
		if c.localUser != nil && source == c.localUser.User {
			c.localUser.OnPartedChannel.Emit(PartedChannelEvent{Channel: ch})
			c.removeChannel(name)
		}
	}
}

func handleKick(c *Client, source *User, m *Message) {
	name := m.Params.Get(1)
	kicked := m.Params.Get(2)
	reason := m.Params.Get(3)
	ch, ok := c.findChannel(name)
	if !ok {
		return
	}
	ch.userKicked(source, kicked, reason)
	if c.localUser != nil && Nickname(kicked).Is(c.localUser.NickName) {
		c.localUser.OnKicked.Emit(KickedEvent{Channel: ch, Source: source, Reason: reason})
		c.localUser.OnPartedChannel.Emit(PartedChannelEvent{Channel: ch})
		c.removeChannel(name)
	}
}

func handleInvite(c *Client, source *User, m *Message) {
	invitee := m.Params.Get(1)
	channel := m.Params.Get(2)
	if c.localUser != nil && Nickname(invitee).Is(c.localUser.NickName) {
		c.OnInvite.Emit(InviteEvent{Source: source, Channel: channel})
		return
	}
	if ch, ok := c.findChannel(channel); ok {
		ch.OnUserInvite.Emit(ChannelInviteEvent{Source: source, Invitee: invitee})
	}
}

func handleTopic(c *Client, source *User, m *Message) {
	ch, ok := c.findChannel(m.Params.Get(1))
	if !ok {
		return
	}
	ch.setTopic(source, m.Params.Get(2))
}

func handleMode(c *Client, source *User, m *Message) {
	if len(m.Params) < 2 {
		return
	}
	target := m.Params.Get(1)
	modeString, rest := SplitModeParams(m.Params[1:])
	if c.isChannelName(target) {
		ch := c.GetChannelFromName(target)
		_ = ch.modesChanged(source, modeString, rest, c.channelUserModes, c.chanModeClasses)
		return
	}
	if c.localUser != nil && Nickname(target).Is(c.localUser.NickName) {
		c.localUser.modesChanged(modeString)
	}
}

func handlePrivmsg(c *Client, source *User, m *Message) {
	dispatchTextMessage(c, source, m, false)
}

func handleNotice(c *Client, source *User, m *Message) {
	targets := strings.Split(m.Params.Get(1), ",")
	text := m.Params.Get(2)
	if source == nil || (len(targets) == 1 && strings.EqualFold(targets[0], "AUTH")) {
		c.OnClientNotice.Emit(ClientNoticeEvent{Text: text})
		return
	}
	dispatchTextMessage(c, source, m, true)
}

// dispatchTextMessage implements the shared PRIVMSG/NOTICE routing: split the
// comma-separated target list, route each to its channel or to the client directly, and
// give a preview hook (the CTCP sub-engine) the chance to consume the message first.
func dispatchTextMessage(c *Client, source *User, m *Message, notice bool) {
	targets := strings.Split(m.Params.Get(1), ",")
	text := m.Params.Get(2)

	if tag, ctcpText, ok := parseCTCP(text); ok {
		if notice {
			c.OnCTCPReply.Emit(CTCPReplyEvent{Source: source, Tag: tag, Text: ctcpText})
			return
		}
		target := c.stripStatusPrefix(targets[0])
		if !c.isChannelName(target) {
			target = ""
		}
		if tag == "ACTION" && target != "" {
			c.GetChannelFromName(target).OnAction.Emit(ChannelActionEvent{Source: source, Text: ctcpText})
		}
		c.OnCTCPQuery.Emit(CTCPQueryEvent{Source: source, Target: target, Tag: tag, Text: ctcpText})
		return
	}

	for _, target := range targets {
		name := c.stripStatusPrefix(target)
		if c.isChannelName(name) {
			ch := c.GetChannelFromName(name)
			handled := false
			if notice {
				ch.OnPreviewNotice.Emit(PreviewNoticeEvent{Source: source, Targets: targets, Text: text, Handled: &handled})
				if !handled {
					ch.OnNotice.Emit(ChannelNoticeEvent{Source: source, Text: text})
				}
			} else {
				ch.OnPreviewMessage.Emit(PreviewMessageEvent{Source: source, Targets: targets, Text: text, Handled: &handled})
				if !handled {
					ch.OnMessage.Emit(ChannelMessageEvent{Source: source, Text: text})
				}
			}
			continue
		}
		handled := false
		if notice {
			c.OnPreviewPrivateNotice.Emit(PreviewNoticeEvent{Source: source, Targets: targets, Text: text, Handled: &handled})
			if !handled {
				c.OnPrivateNotice.Emit(PrivateNoticeEvent{Source: source, Text: text})
			}
		} else {
			c.OnPreviewPrivateMessage.Emit(PreviewMessageEvent{Source: source, Targets: targets, Text: text, Handled: &handled})
			if !handled {
				c.OnPrivateMessage.Emit(PrivateMessageEvent{Source: source, Text: text})
			}
		}
	}
}

func handlePing(c *Client, source *User, m *Message) {
	token := m.Params.Get(1)
	c.OnPing.Emit(PingEvent{Message: token})
	c.sendNow(NewMessage(CmdPong, token))
}

func handlePong(c *Client, source *User, m *Message) {
	c.OnPong.Emit(PongEvent{Message: m.Params.Get(len(m.Params))})
}

func handleError(c *Client, source *User, m *Message) {
	c.OnError.Emit(ErrorEvent{Message: m.Params.Get(1)})
}
