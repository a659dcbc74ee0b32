package mstime

import (
	"time"
)

const (
	nanosecondsInMillisecond = int64(time.Millisecond / time.Nanosecond)
	millisecondsInSecond     = int64(time.Second / time.Millisecond)
)

// Time is a wrapper for time.Time that guarantees all of its methods
// will return a millisecond precisioned times.
type Time struct {
	time time.Time
}

// UnixMilliseconds returns t as a Unix time, the number of milliseconds
// elapsed since January 1, 1970 UTC.
func (t Time) UnixMilliseconds() int64 {
	return t.time.UnixNano() / nanosecondsInMillisecond
}

// UnixSeconds returns t as a Unix time, the number of seconds elapsed since
// January 1, 1970 UTC.
func (t Time) UnixSeconds() int64 {
	return t.time.Unix()
}

// Add returns the time t+d.
func (t Time) Add(d time.Duration) Time {
	return newMilliseconds(t.time.Add(d))
}

// After reports whether the time instant t is after u.
func (t Time) After(u Time) bool {
	return t.time.After(u.time)
}

// Before reports whether the time instant t is before u.
func (t Time) Before(u Time) bool {
	return t.time.Before(u.time)
}

// Sub returns the duration t-u.
func (t Time) Sub(u Time) time.Duration {
	return t.time.Sub(u.time)
}

// String returns the time formatted using the format string.
func (t Time) String() string {
	return t.time.String()
}

// ToNativeTime converts t to time.Time
func (t Time) ToNativeTime() time.Time {
	return t.time
}

// Now returns the current local time, with precision of one millisecond.
func Now() Time {
	return ToMSTime(time.Now())
}

// UnixMilliseconds returns the local Time corresponding to the given Unix
// time, ms milliseconds since January 1, 1970 UTC.
func UnixMilliseconds(ms int64) Time {
	seconds := ms / millisecondsInSecond
	nanoseconds := (ms - seconds*millisecondsInSecond) * nanosecondsInMillisecond
	return newMilliseconds(time.Unix(seconds, nanoseconds))
}

// ToMSTime converts t to Time, with precision of one millisecond.
func ToMSTime(t time.Time) Time {
	return newMilliseconds(t)
}

func newMilliseconds(t time.Time) Time {
	nanoseconds := int64(t.Nanosecond())
	millisecondPrecisionNanoseconds := (nanoseconds / nanosecondsInMillisecond) * nanosecondsInMillisecond
	return Time{time: time.Unix(t.Unix(), millisecondPrecisionNanoseconds)}
}
