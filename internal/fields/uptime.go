package fields

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	secondsPerDay   = 86400
	secondsPerMonth = 30 * secondsPerDay
	secondsPerYear  = 365 * secondsPerDay
)

var uptimeRegex = regexp.MustCompile(`^\s*(?:(\d+)y\s+)?(?:(\d+)m\s+)?(?:(\d+)d\s+)?(\d+):(\d{1,2}):(\d{1,2})\s*$`)

// FormatUptime renders seconds as hh:mm:ss with day, month and year prefixes
// once the value is large enough to need them.
func FormatUptime(seconds int64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	years := seconds / secondsPerYear
	rest := seconds % secondsPerYear
	months := rest / secondsPerMonth
	rest %= secondsPerMonth
	days := rest / secondsPerDay
	rest %= secondsPerDay
	clock := fmt.Sprintf("%02d:%02d:%02d", rest/3600, rest%3600/60, rest%60)
	switch {
	case years > 0:
		return fmt.Sprintf("%s%dy %dm %dd %s", sign, years, months, days, clock)
	case months > 0:
		return fmt.Sprintf("%s%dm %dd %s", sign, months, days, clock)
	case days > 0:
		return fmt.Sprintf("%s%dd %s", sign, days, clock)
	}
	return sign + clock
}

// ParseUptime is the inverse of FormatUptime.
func ParseUptime(val string) (int64, bool) {
	m := uptimeRegex.FindStringSubmatch(val)
	if m == nil {
		return 0, false
	}
	num := func(s string) int64 {
		if s == "" {
			return 0
		}
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	}
	minutes, seconds := num(m[5]), num(m[6])
	if minutes > 59 || seconds > 59 {
		return 0, false
	}
	return num(m[1])*secondsPerYear +
		num(m[2])*secondsPerMonth +
		num(m[3])*secondsPerDay +
		num(m[4])*3600 + minutes*60 + seconds, true
}
