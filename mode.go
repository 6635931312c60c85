package irc

import (
	"strings"

	"github.com/pkg/errors"
)

// ChanModeClasses describes the four CHANMODES classes announced by a server's
// RPL_ISUPPORT CHANMODES parameter:
//
//	A: modes that add or remove an entry to/from a list, and always take a parameter.
//	B: modes that change a setting and always take a parameter.
//	C: modes that change a setting and take a parameter only when being set.
//	D: modes that change a setting and never take a parameter.
//
// https://modern.ircdocs.horse/#channel-mode
type ChanModeClasses struct {
	A string
	B string
	C string
	D string
}

// defaultChanModeClasses is used until a server's RPL_ISUPPORT CHANMODES value is known.
var defaultChanModeClasses = ChanModeClasses{
	A: "beI",
	B: "k",
	C: "l",
	D: "aimnpqrst",
}

// takesParam reports whether mode char m takes a parameter when being applied with the
// given sign (true for add, false for remove).
func (c ChanModeClasses) takesParam(m byte, add bool) bool {
	switch {
	case strings.IndexByte(c.A, m) >= 0:
		return true
	case strings.IndexByte(c.B, m) >= 0:
		return true
	case strings.IndexByte(c.C, m) >= 0:
		return add
	default:
		return false
	}
}

// ModeChange is a single fully-resolved mode flip produced by FoldModes: one character
// from a mode string, its sign, and the parameter it consumed (if any).
type ModeChange struct {
	Add    bool   // true for '+', false for '-'
	Mode   byte   // the mode character
	Param  string // the parameter consumed for this mode change, or "" if none
	Status bool   // true when Mode is one of the server's PREFIX status modes (applies to a channel-user, not the channel)
}

// FoldModes walks a MODE command's parameter tail and resolves it into an ordered list of
// individual mode changes, consuming parameters according to the sign-accumulator algorithm
// described for channel MODE processing: '+' and '-' toggle a running sign, and every other
// character is a mode change carrying the current sign.
//
// statusModes is the set of per-user status mode characters announced via PREFIX (e.g. "ov").
// Status modes always consume a parameter (a nick), regardless of sign. All other mode
// characters consume a parameter according to classes' A/B/C/D rules.
//
// params is the parameter list following the mode string; it is consumed positionally and
// must contain enough entries for every parameterized mode change, or FoldModes returns
// ErrProtocolViolation.
func FoldModes(modeString string, params []string, statusModes string, classes ChanModeClasses) ([]ModeChange, error) {
	var changes []ModeChange
	add := true
	pi := 0

	nextParam := func() (string, bool) {
		if pi >= len(params) {
			return "", false
		}
		p := params[pi]
		pi++
		return p, true
	}

	for i := 0; i < len(modeString); i++ {
		c := modeString[i]
		switch c {
		case '+':
			add = true
			continue
		case '-':
			add = false
			continue
		}

		change := ModeChange{Add: add, Mode: c}
		switch {
		case strings.IndexByte(statusModes, c) >= 0:
			change.Status = true
			p, ok := nextParam()
			if !ok {
				return nil, errors.Wrapf(ErrProtocolViolation, "mode %q: missing nick parameter for status mode", modeString)
			}
			change.Param = p
		case classes.takesParam(c, add):
			p, ok := nextParam()
			if !ok {
				return nil, errors.Wrapf(ErrProtocolViolation, "mode %q: missing parameter for mode %q", modeString, string(c))
			}
			change.Param = p
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// SplitModeParams separates a MODE command's trailing parameters into the mode string
// (the first token, which begins with '+' or '-') and the remaining parameter tokens.
func SplitModeParams(params []string) (modeString string, rest []string) {
	if len(params) == 0 {
		return "", nil
	}
	return params[0], params[1:]
}

// userMode characters and their numeric bit values, used to build the initial USER
// command's mode parameter. https://tools.ietf.org/html/rfc2812#section-3.1.3
const (
	userModeWallops  byte = 'w'
	userModeInvis    byte = 'i'
	userModeWallopsN      = 0x02
	userModeInvisN        = 0x04
)

// NumericUserMode folds a set of requested initial user mode characters ('w', 'i') into
// the numeric mode value sent as the second parameter of the USER command at registration.
// Unrecognized characters are ignored.
func NumericUserMode(modes []byte) int {
	var n int
	for _, m := range modes {
		switch m {
		case userModeWallops:
			n |= userModeWallopsN
		case userModeInvis:
			n |= userModeInvisN
		}
	}
	return n
}
