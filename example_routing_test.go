package irc_test

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/goircorg/irc"
)

// This example shows the event-callback style: connect to an IRC server, join a channel
// called "#world", send the message "Hello!", reply to "!greet nickname" with
// "Hello, nickname!", and quit when CTRL+C is pressed.
func Example_router() {
	ctx, cancel := context.WithCancel(context.Background())

	bot := irc.NewClient("irc.swiftirc.net:6697")

	bot.OnRegistered.On(func(struct{}) {
		bot.LocalUser().OnKicked.On(func(e irc.KickedEvent) {
			_ = bot.SendMessage([]string{e.Source.NickName}, "You kicked me!")
		})

		bot.LocalUser().OnJoinedChannel.On(func(e irc.JoinedChannelEvent) {
			if e.Channel.Name != "#world" {
				return
			}
			_ = bot.SendMessage([]string{"#world"}, "Hello!")

			// When somebody types "!greet nickname" we respond with "Hello, nickname!".
			e.Channel.OnMessage.On(func(e irc.ChannelMessageEvent) {
				if !strings.HasPrefix(e.Text, "!greet ") {
					return
				}
				fields := strings.Fields(e.Text)
				if len(fields) < 2 {
					return
				}
				_ = bot.SendMessage([]string{"#world"}, "Hello, "+fields[1]+"!")
			})
		})

		_ = bot.JoinChannel("#world")
	})

	// Listen for interrupt signals (Ctrl+C) and initiate
	// a graceful shutdown sequence when one is received.
	shutdown := make(chan os.Signal, 1)
	go func() {
		<-shutdown
		cancel()
	}()
	signal.Notify(shutdown, os.Interrupt)

	// run the bot (blocking until exit)
	err := bot.Connect(ctx, irc.Registration{NickName: "HelloBot", UserName: "HelloBot", RealName: "HelloBot"})
	if err != nil {
		log.Println(err)
	}
}
