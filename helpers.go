package irc

import "time"

// secondsToDuration converts a whole-seconds count, as sent in RPL_WHOISIDLE, to a
// time.Duration.
func secondsToDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

// secondsSinceEpoch converts a unix timestamp, as sent in ban/exception list entries, to a
// time.Time.
func secondsSinceEpoch(secs int) time.Time {
	return time.Unix(int64(secs), 0)
}
