// Package domain holds the core value types and the schedule arithmetic
// shared by the command handlers, the job registry and the notifier.
package domain

// Mode is the notification policy for a user.
type Mode int

const (
	// ModeAllUpdates sends every checked item on every run.
	ModeAllUpdates Mode = 0
	// ModeChangesOnly sends only items whose price moved since the last run.
	ModeChangesOnly Mode = 1
)

// Timezone offsets accepted by /timezone. Real-world UTC offsets span
// -12:00 to +14:00; anything outside is rejected rather than relying on
// the mod-24 wrap to make sense of it.
const (
	TimezoneMin = -12
	TimezoneMax = 14
)

// Defaults for a freshly created user.
const (
	DefaultHour   = 8
	DefaultMinute = 0
)

// User is one chat's schedule and notification preferences.
type User struct {
	ID       int64
	Mode     Mode
	Hour     int // 0..23, user-local
	Minute   int // 0..59
	Timezone int // signed hour offset from the bot's reference timezone
	Paused   bool
}

// Item is one tracked marketplace article.
type Item struct {
	ID          int64
	UserID      int64
	Market      string
	Article     int64
	Price       int64
	Description string
}

// FireHour converts a user-local hour into the bot's reference-timezone
// hour. Normalized so negative offsets wrap correctly.
func FireHour(hour, timezone int) int {
	h := (hour + timezone) % 24
	if h < 0 {
		h += 24
	}
	return h
}
