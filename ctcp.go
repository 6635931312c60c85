package irc

import "strings"

// ctcpDelim is the byte CTCP uses to tag an otherwise ordinary PRIVMSG/NOTICE body as a
// CTCP query or reply. https://modern.ircdocs.horse/ctcp
const ctcpDelim = '\x01'

// lowQuote escapes NUL, CR, LF, and the low-level quote character itself so that a CTCP
// payload survives the line-oriented IRC transport unscathed.
var lowQuote = strings.NewReplacer(
	"\x10", "\x10\x10",
	"\x00", "\x10"+"0",
	"\r", "\x10"+"r",
	"\n", "\x10"+"n",
)

var lowDequote = strings.NewReplacer(
	"\x10"+"0", "\x00",
	"\x10"+"r", "\r",
	"\x10"+"n", "\n",
	"\x10\x10", "\x10",
)

// ctcpQuote escapes the CTCP delimiter and the escape character itself within a tagged
// payload.
var ctcpQuote = strings.NewReplacer(
	"\\", "\\\\",
	"\x01", "\\a",
)

var ctcpDequote = strings.NewReplacer(
	"\\a", "\x01",
	"\\\\", "\\",
)

// encodeCTCP builds the raw payload for a CTCP query or reply: \x01TAG text\x01.
func encodeCTCP(tag, text string) string {
	body := tag
	if text != "" {
		body += " " + text
	}
	return string(ctcpDelim) + lowQuote.Replace(ctcpQuote.Replace(body)) + string(ctcpDelim)
}

// parseCTCP reports whether body is CTCP-tagged and, if so, returns its upper-cased tag and
// dequoted argument text.
func parseCTCP(body string) (tag, text string, ok bool) {
	if len(body) < 2 || body[0] != ctcpDelim {
		return "", "", false
	}
	end := len(body)
	if body[end-1] == ctcpDelim {
		end--
	}
	inner := lowDequote.Replace(ctcpDequote.Replace(body[1:end]))
	tag, text, _ = strings.Cut(inner, " ")
	return strings.ToUpper(tag), text, true
}
