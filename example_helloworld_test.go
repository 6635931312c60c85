package irc_test

import (
	"context"
	"log"

	"github.com/goircorg/irc"
)

// Hello, #World:
// The following code connects to an IRC server,
// waits for RPL_WELCOME,
// then requests to join a channel called #world,
// waits for the server to tell us that we've joined,
// then sends the message "Hello!" to #world,
// then disconnects with the message "Goodbye.".
func Example() {
	bot := irc.NewClient("irc.example.com:6697")

	bot.OnRegistered.On(func(struct{}) {
		bot.LocalUser().OnJoinedChannel.On(func(e irc.JoinedChannelEvent) {
			if e.Channel.Name != "#world" {
				return
			}
			_ = bot.SendMessage([]string{"#world"}, "Hello!")
			_ = bot.Quit("Goodbye.")
		})
		_ = bot.JoinChannel("#world")
	})

	// run the bot (blocking until exit)
	err := bot.Connect(context.Background(), irc.Registration{NickName: "HelloBot", UserName: "HelloBot", RealName: "HelloBot"})
	if err != nil {
		log.Println(err)
	}
}
