package irc_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/goircorg/irc"
	"github.com/goircorg/irc/irctest"
)

// mockServer wires server to client's DialFn and runs a minimal registration-completing
// ircd loop in the background: once both NICK and USER have been seen it sends the 001
// welcome sequence, mirroring the handshake spec.md §6 describes.
func mockServer(client *irc.Client) *irctest.Server {
	server := irctest.NewServer()
	client.DialFn = func() (io.ReadWriteCloser, error) { return server, nil }

	go func() {
		var nick, user string
		for line := range server.Lines() {
			switch {
			case strings.HasPrefix(line, "NICK "):
				nick = strings.TrimPrefix(line, "NICK ")
			case strings.HasPrefix(line, "USER "):
				user = strings.Fields(line)[1]
			case strings.HasPrefix(line, "QUIT"):
				server.Close()
				return
			}
			if nick != "" && user != "" {
				server.WriteString(fmt.Sprintf(":irc.example.com 001 %s :Welcome to the IRC Network %s", nick, nick))
				server.WriteString(fmt.Sprintf(":irc.example.com 002 %s :Your host is irc.example.com", nick))
				server.WriteString(fmt.Sprintf(":irc.example.com 003 %s :-", nick))
				server.WriteString(fmt.Sprintf(":irc.example.com 004 %s irc.example.com go-irc o o", nick))
				nick, user = "", ""
			}
		}
	}()
	return server
}

func TestClientRegistration(t *testing.T) {
	client := irc.NewClient("")
	server := mockServer(client)
	defer server.Close()

	registered := make(chan struct{})
	client.OnRegistered.On(func(struct{}) { close(registered) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- client.Connect(ctx, irc.Registration{NickName: "bot", UserName: "bot", RealName: "Bot"}) }()

	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("client never registered")
	}

	if client.LocalUser() == nil || client.LocalUser().NickName != "bot" {
		t.Errorf("expected local user nickname %q; got %+v", "bot", client.LocalUser())
	}

	client.Disconnect()
	if err := <-errc; err != nil {
		t.Errorf("expected clean disconnect; got %v", err)
	}
}

func TestClientPingReply(t *testing.T) {
	client := irc.NewClient("")
	server := mockServer(client)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		_ = client.Connect(ctx, irc.Registration{NickName: "bot", UserName: "bot", RealName: "Bot"})
	}()

	client.OnRegistered.On(func(struct{}) {
		// OnRegistered runs on the client's read goroutine, and a write to the mock server
		// blocks until that goroutine reads it, so the write must come from another goroutine.
		go server.WriteString("PING :123456789")
	})

	for line := range server.Lines() {
		if line == "PONG :123456789" {
			client.Disconnect()
			return
		}
	}
	t.Errorf("client never replied to PING")
}

func TestClientCTCPEvents(t *testing.T) {
	client := irc.NewClient("")
	server := mockServer(client)
	defer server.Close()

	var gotAction, gotReply bool
	done := make(chan struct{})

	client.OnCTCPQuery.On(func(e irc.CTCPQueryEvent) {
		if e.Tag == "ACTION" && e.Text == "slaps bot" {
			gotAction = true
		}
		if gotAction && gotReply {
			close(done)
		}
	})
	client.OnCTCPReply.On(func(e irc.CTCPReplyEvent) {
		if e.Tag == "VERSION" && e.Text == "mIRC v6.9" {
			gotReply = true
		}
		if gotAction && gotReply {
			close(done)
		}
	})
	client.OnRegistered.On(func(struct{}) {
		server.WriteString(":nick!user@host PRIVMSG bot :\x01ACTION slaps bot\x01")
		server.WriteString(":nick!user@host NOTICE bot :\x01VERSION mIRC v6.9\x01")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		_ = client.Connect(ctx, irc.Registration{NickName: "bot", UserName: "bot", RealName: "Bot"})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("never received both CTCP events")
	}
	if !gotAction {
		t.Error("expected an ACTION CTCP query")
	}
	if !gotReply {
		t.Error("expected a VERSION CTCP reply")
	}
	client.Disconnect()
}

func TestClientNickTracking(t *testing.T) {
	client := irc.NewClient("")
	server := mockServer(client)
	defer server.Close()

	nickChanged := make(chan irc.NickChangedEvent, 1)
	// Attaching the OnNickName listener happens synchronously within the OnRegistered
	// callback, on the same goroutine that will later process the NICK line, so there
	// is no window for the server's NICK message to race ahead of it.
	client.OnRegistered.On(func(struct{}) {
		client.LocalUser().OnNickName.On(func(e irc.NickChangedEvent) { nickChanged <- e })
		go func() {
			time.Sleep(20 * time.Millisecond)
			server.WriteString(":bot NICK newbot")
		}()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		_ = client.Connect(ctx, irc.Registration{NickName: "bot", UserName: "bot", RealName: "Bot"})
	}()

	select {
	case e := <-nickChanged:
		if e.OldNick != "bot" || e.NewNick != "newbot" {
			t.Errorf("expected bot -> newbot; got %s -> %s", e.OldNick, e.NewNick)
		}
	case <-time.After(time.Second):
		t.Fatal("nickname change was never observed")
	}
	client.Disconnect()
}
