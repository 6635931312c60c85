package irc_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/goircorg/irc"
)

const myName = "HelloBot"

// Example_simple shows the minimal shape of a bot: join a channel once registered,
// greet it, and reply to any direct "Hello" message.
func Example_simple() {
	bot := irc.NewClient("irc.example.com:6697")

	bot.OnRegistered.On(func(struct{}) {
		bot.LocalUser().OnJoinedChannel.On(func(e irc.JoinedChannelEvent) {
			if e.Channel.Name != "#MyChannel" {
				return
			}
			_ = bot.SendMessage([]string{"#MyChannel"}, fmt.Sprintf("Hello everybody, my name is %s", myName))
		})
		_ = bot.JoinChannel("#MyChannel")
	})

	bot.OnPrivateMessage.On(func(e irc.PrivateMessageEvent) {
		if strings.HasPrefix(e.Text, "Hello") {
			_ = bot.SendMessage([]string{e.Source.NickName}, "hey there!")
		}
	})

	err := bot.Connect(context.Background(), irc.Registration{NickName: myName, UserName: myName, RealName: myName})
	if err != nil {
		log.Fatal(err)
	}
}
