package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/WoushouW/woushBOT/internal/models"
)

// WarnBadge is the coloured warning counter shown next to a member.
type WarnBadge struct {
	Class string
	Label string
}

// Warn maps a warning count to its badge: none, low, medium, and critical
// from the auto-ban threshold up.
func Warn(n int) WarnBadge {
	if n < 0 {
		n = 0
	}
	class := "warn-none"
	switch {
	case n >= models.AutoBanWarnings:
		class = "warn-critical"
	case n == 2:
		class = "warn-medium"
	case n == 1:
		class = "warn-low"
	}
	return WarnBadge{Class: class, Label: fmt.Sprintf("%d/%d", n, models.AutoBanWarnings)}
}

// Countdown is the remaining-time display of a temp room.
type Countdown struct {
	Text    string
	Percent int
	Color   string
	Expired bool
}

// Countdown colours.
const (
	CountdownGreen = "#43b581"
	CountdownAmber = "#faa61a"
	CountdownRed   = "#f04747"
)

// RoomCountdown computes m:ss remaining, the share of the room's lifetime
// left and the colour: red under 2 minutes, amber under 5.
func RoomCountdown(room models.TempRoom, now time.Time) Countdown {
	left := room.Remaining(now)
	if left <= 0 {
		return Countdown{Text: "0:00", Percent: 0, Color: CountdownRed, Expired: true}
	}

	secs := int(left / time.Second)
	cd := Countdown{Text: fmt.Sprintf("%d:%02d", secs/60, secs%60), Color: CountdownGreen}

	total := time.Duration(room.Duration) * time.Minute
	if !room.CreatedAt.IsZero() && room.ExpiresAt.After(room.CreatedAt.Time) {
		total = room.ExpiresAt.Sub(room.CreatedAt.Time)
	}
	if total > 0 {
		cd.Percent = int(left * 100 / total)
		if cd.Percent > 100 {
			cd.Percent = 100
		}
	}

	switch {
	case left < 2*time.Minute:
		cd.Color = CountdownRed
	case left < 5*time.Minute:
		cd.Color = CountdownAmber
	}
	return cd
}

// initials returns up to two letters for avatar placeholders.
func initials(name string) string {
	fields := strings.Fields(name)
	var b strings.Builder
	n := 0
	for _, f := range fields {
		r := []rune(f)
		b.WriteString(strings.ToUpper(string(r[0])))
		if n++; n >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// truncate shortens s to n runes with an ellipsis.
func truncate(n int, s string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// activityTime formats a backend time string for the feed. Unparseable
// values are shown as sent.
func activityTime(s fmt.Stringer) string {
	raw := s.String()
	if raw == "" {
		return "-"
	}
	ts, err := models.ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return ts.Display()
}

// duration renders a second count as 1h 30m style text.
func duration(secs int) string {
	if secs <= 0 {
		return "-"
	}
	d := time.Duration(secs) * time.Second
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
