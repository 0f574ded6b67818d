package app

import "time"

// Origin returns the instant relative dates are resolved against. The result
// is in UTC with a wall clock equal to the local wall clock of the browser
// that archived the pages: timestamp minus the zone offset in minutes west of
// UTC, the convention of JavaScript's getTimezoneOffset.
func Origin(cfg Config, now time.Time) time.Time {
	ts := now
	if cfg.OriginTimestampSet {
		ts = time.UnixMilli(cfg.OriginTimestampMillis)
	}
	west := 0
	if cfg.OriginTimezoneSet {
		west = cfg.OriginTimezoneMinutes
	} else {
		_, east := now.Zone()
		west = -east / 60
	}
	return ts.UTC().Add(-time.Duration(west) * time.Minute)
}
