package irc

// handlerFunc processes one parsed, dispatched Message. source is the already-resolved
// *User for the message's prefix, or nil if the message carried no prefix or originated
// from a server.
type handlerFunc func(c *Client, source *User, m *Message)

// buildDispatchTable returns the fixed command/numeric -> handler map used by every
// Client. It is rebuilt per Client only because Go has no portable way to share a
// package-level map of unexported function values safely across goroutines that might
// mutate it; the table itself is never mutated after construction.
func buildDispatchTable() map[string]handlerFunc {
	return map[string]handlerFunc{
		CmdNick:    handleNick,
		CmdQuit:    handleQuit,
		CmdJoin:    handleJoin,
		CmdPart:    handlePart,
		CmdMode:    handleMode,
		CmdTopic:   handleTopic,
		CmdKick:    handleKick,
		CmdInvite:  handleInvite,
		CmdPrivmsg: handlePrivmsg,
		CmdNotice:  handleNotice,
		CmdPing:    handlePing,
		CmdPong:    handlePong,
		CmdError:   handleError,

		RplWelcome:  handleWelcome,
		RplYourHost: handleIgnored,
		RplCreated:  handleIgnored,
		RplMyInfo:   handleMyInfo,
		RplISupport: handleISupport,
		RplBounce:   handleIgnored,

		RplStatsLinkInfo: handleStats,
		RplStatsCommands: handleStats,
		RplStatsCLine:    handleStats,
		RplStatsNLine:    handleStats,
		RplStatsILine:    handleStats,
		RplStatsKLine:    handleStats,
		RplStatsYLine:    handleStats,
		RplStatsUptime:   handleStats,
		RplStatsOLine:    handleStats,
		RplStatsHLine:    handleStats,
		RplEndOfStats:    handleEndOfStats,

		RplLUserClient:   handleLUserClient,
		RplLUserOp:       handleLUserOp,
		RplLUserUknownL:  handleLUserUnknown,
		RplLUserChannels: handleLUserChannels,
		RplLUserMe:       handleLUserMe,

		RplAway:   handleAway,
		RplUnAway: handleIgnored,
		RplNowAway: handleIgnored,

		RplWhoIsUser:     handleWhoIsUser,
		RplWhoIsServer:   handleWhoIsServer,
		RplWhoIsOperator: handleWhoIsOperator,
		RplWhoIsIdle:     handleWhoIsIdle,
		RplWhoIsChannels: handleWhoIsChannels,
		RplEndOfWhoIs:    handleEndOfWhoIs,
		RplWhoWasUser:    handleWhoWasUser,
		RplEndOfWhoWas:   handleEndOfWhoWas,
		RplEndOfWho:      handleIgnored,
		RplWhoReply:      handleWhoReply,

		RplListStart: handleIgnored,
		RplList:      handleList,
		RplListEnd:   handleListEnd,

		RplChannelModeIs: handleChannelModeIs,
		RplNoTopic:       handleNoTopic,
		RplTopic:         handleTopicReply,
		RplInviting:      handleIgnored,

		RplBanList:         handleBanList,
		RplEndOfBanList:    handleEndOfBanList,
		RplInviteList:      handleInviteList,
		RplEndOfInviteList: handleEndOfBanList,
		RplExceptList:      handleInviteList,
		RplEndOfExceptList: handleEndOfBanList,

		RplVersion: handleVersion,

		RplNamReply:   handleNamReply,
		RplEndOfNames: handleEndOfNames,

		RplLinks:      handleIgnored,
		RplEndOfLinks: handleIgnored,

		RplMOTDStart: handleMotdLine,
		RplMOTD:      handleMotdLine,
		RplEndOfMOTD: handleEndOfMotd,
		RplErrNoMOTD: handleEndOfMotd,

		RplTime: handleTime,
	}
}
