package irc

import "testing"

func TestGetUserFromNickInternsCaseInsensitively(t *testing.T) {
	c := NewClient("")
	u1 := c.GetUserFromNick("Alice")
	u2 := c.GetUserFromNick("alice")
	u3 := c.GetUserFromNick("ALICE")
	if u1 != u2 || u2 != u3 {
		t.Fatalf("expected GetUserFromNick to return the same *User regardless of case; got %p, %p, %p", u1, u2, u3)
	}
}

func TestGetChannelFromNameInternsCaseInsensitively(t *testing.T) {
	c := NewClient("")
	ch1 := c.GetChannelFromName("#Foo")
	ch2 := c.GetChannelFromName("#foo")
	if ch1 != ch2 {
		t.Fatalf("expected GetChannelFromName to return the same *Channel regardless of case; got %p, %p", ch1, ch2)
	}
}

func TestGetServerFromHostInternsCaseSensitively(t *testing.T) {
	c := NewClient("")
	s1 := c.GetServerFromHost("IRC.Example.Com")
	s2 := c.GetServerFromHost("irc.example.com")
	if s1 == s2 {
		t.Fatal("expected GetServerFromHost to treat differently-cased hosts as distinct entries")
	}
	s3 := c.GetServerFromHost("IRC.Example.Com")
	if s1 != s3 {
		t.Fatal("expected GetServerFromHost to return the same *Server for an exact repeat host")
	}
}

// TestRenamePropagatesThroughSharedIdentity exercises the interning invariant that a
// ChannelUser never owns its *User: mutating the interned User in place is visible through
// every reference to it, with no separate update step required.
func TestRenamePropagatesThroughSharedIdentity(t *testing.T) {
	c := NewClient("")
	u := c.GetUserFromNick("alice")
	ch := c.GetChannelFromName("#test")
	cu := newChannelUser(u, ch)
	ch.userJoined(cu)

	u.NickName = "alice2"

	got, ok := ch.ChannelUser("alice2")
	if !ok {
		t.Fatal("expected renamed user to still be found under the new nick via the shared *User")
	}
	if got != cu {
		t.Fatalf("expected the same *ChannelUser to be returned; got %p, want %p", got, cu)
	}
	if got.User.NickName != "alice2" {
		t.Errorf("expected ChannelUser.User.NickName to reflect the rename; got %q", got.User.NickName)
	}
}

// TestChannelUserJoinedIsIdempotent covers P7: joining the same user into a channel twice
// must not create a second membership record or fire a second event.
func TestChannelUserJoinedIsIdempotent(t *testing.T) {
	c := NewClient("")
	u := c.GetUserFromNick("alice")
	ch := c.GetChannelFromName("#test")

	var joins int
	ch.OnUserJoinedChannel.On(func(ChannelUserJoinedEvent) { joins++ })

	ch.userJoined(newChannelUser(u, ch))
	ch.userJoined(newChannelUser(u, ch))

	if len(ch.Users) != 1 {
		t.Fatalf("expected exactly one ChannelUser after duplicate joins; got %d", len(ch.Users))
	}
	if joins != 1 {
		t.Errorf("expected exactly one JoinedChannel event; got %d", joins)
	}
}

func TestChannelUserRemovalByJoinPartQuitKick(t *testing.T) {
	c := NewClient("")
	ch := c.GetChannelFromName("#test")

	ch.userJoined(newChannelUser(c.GetUserFromNick("alice"), ch))
	ch.userJoined(newChannelUser(c.GetUserFromNick("bob"), ch))
	ch.userJoined(newChannelUser(c.GetUserFromNick("carol"), ch))

	if ch.userLeft("alice", "bye") == nil {
		t.Error("expected userLeft to remove alice")
	}
	if ch.userQuit("bob", "gone") == nil {
		t.Error("expected userQuit to remove bob")
	}
	if ch.userKicked(nil, "carol", "spam") == nil {
		t.Error("expected userKicked to remove carol")
	}
	if len(ch.Users) != 0 {
		t.Fatalf("expected channel roster to be empty; got %d members", len(ch.Users))
	}
	if ch.userLeft("dave", "") != nil {
		t.Error("expected userLeft on a non-member to be a no-op")
	}
}

// TestChannelModesSeparatesStatusFromChannelModes covers P5: a MODE batch mixing a
// channel-scoped mode with a user status mode must apply each to the right place, without
// conflating the two.
func TestChannelModesSeparatesStatusFromChannelModes(t *testing.T) {
	c := NewClient("")
	ch := c.GetChannelFromName("#test")
	cu := newChannelUser(c.GetUserFromNick("alice"), ch)
	ch.userJoined(cu)

	var got ChannelModesEvent
	ch.OnModes.On(func(e ChannelModesEvent) { got = e })

	err := ch.modesChanged(nil, "+mo", []string{"alice"}, "ov", defaultChanModeClasses)
	if err != nil {
		t.Fatalf("modesChanged returned an error: %v", err)
	}

	if _, ok := ch.Modes['m']; !ok {
		t.Error("expected channel mode 'm' to be set on the channel")
	}
	if _, ok := ch.Modes['o']; ok {
		t.Error("status mode 'o' must not be recorded as a channel mode")
	}
	if !cu.HasMode('o') {
		t.Error("expected status mode 'o' to be applied to the target ChannelUser")
	}
	if len(got.Changes) != 2 {
		t.Errorf("expected the Modes event to carry both changes in one batch; got %d", len(got.Changes))
	}
}

func TestLocalUserModesChangedAppliesAddAndRemove(t *testing.T) {
	lu := newLocalUser(&User{NickName: "bot"})

	var events []string
	lu.OnModes.On(func(e LocalUserModesEvent) { events = append(events, e.Modes) })

	lu.modesChanged("+iw")
	if !lu.HasMode('i') || !lu.HasMode('w') {
		t.Fatal("expected both modes to be set")
	}

	lu.modesChanged("-w")
	if lu.HasMode('w') {
		t.Error("expected mode 'w' to be cleared")
	}
	if !lu.HasMode('i') {
		t.Error("expected mode 'i' to remain set")
	}
	if len(events) != 2 {
		t.Errorf("expected two Modes events; got %d", len(events))
	}
}

func TestChannelFlushBansClearsAccumulator(t *testing.T) {
	ch := newChannel("#test")
	ch.pendingBans = []BanEntry{{Mask: "*!*@bad.example"}, {Mask: "*!*@worse.example"}}

	var got ChannelBanListEvent
	ch.OnBanList.On(func(e ChannelBanListEvent) { got = e })

	ch.flushBans()

	if len(got.Entries) != 2 {
		t.Fatalf("expected 2 entries in the flushed event; got %d", len(got.Entries))
	}
	if ch.pendingBans != nil {
		t.Error("expected the accumulation buffer to be cleared after flush")
	}
}
