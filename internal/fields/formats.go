package fields

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
	defaultCrontab = "* * * * *"
)

var reservedStringIDs = []string{"new", "edit", "remove"}

func numberBehavior(integer bool) behavior {
	conv := func(v any) any {
		if v == nil {
			return nil
		}
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		if integer {
			return int64(f)
		}
		return f
	}
	return behavior{toInner: conv, toRepresent: conv}
}

func toBoolean(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "on":
			return true
		}
		return false
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func booleanBehavior() behavior {
	return behavior{toInner: toBoolean, toRepresent: toBoolean}
}

func choicesBehavior(opts Options) behavior {
	pick := func(v any) any {
		if v == nil || len(opts.Enum) == 0 || containsValue(opts.Enum, v) {
			return v
		}
		return nil
	}
	return behavior{
		toRepresent: pick,
		rules: []rule{func(o Options, v any) (any, error) {
			if v == nil || v == "" || len(o.Enum) == 0 || containsValue(o.Enum, v) {
				return v, nil
			}
			return nil, newValidationError(KindInvalidChoice, o, o.Enum)
		}},
	}
}

func parseTime(v any, loc *time.Location) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val.In(loc), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", dateTimeLayout, dateLayout} {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t.In(loc), true
			}
		}
	case float64:
		return time.UnixMilli(int64(val)).In(loc), true
	}
	return time.Time{}, false
}

// dateBehavior keeps only the calendar day.
func dateBehavior(loc *time.Location) behavior {
	conv := func(v any) any {
		t, ok := parseTime(v, loc)
		if !ok {
			return v
		}
		return t.Format(dateLayout)
	}
	return behavior{toInner: conv, toRepresent: conv}
}

// dateTimeBehavior represents minutes in the session time zone and sends RFC 3339.
func dateTimeBehavior(loc *time.Location) behavior {
	return behavior{
		toInner: func(v any) any {
			t, ok := parseTime(v, loc)
			if !ok {
				return v
			}
			return t.Truncate(time.Minute).Format(time.RFC3339)
		},
		toRepresent: func(v any) any {
			t, ok := parseTime(v, loc)
			if !ok {
				return v
			}
			return t.Format(dateTimeLayout)
		},
	}
}

func uptimeBehavior() behavior {
	return behavior{
		toInner: func(v any) any {
			if s, ok := v.(string); ok {
				if secs, ok := ParseUptime(s); ok {
					return secs
				}
				return nil
			}
			return v
		},
		toRepresent: func(v any) any {
			if f, ok := numeric(v); ok {
				return FormatUptime(int64(math.Round(f)))
			}
			return v
		},
	}
}

func timeIntervalBehavior() behavior {
	return behavior{
		toInner: func(v any) any {
			if m, ok := v.(map[string]any); ok {
				return m["value"]
			}
			if f, ok := toFloat(v); ok {
				return f * 1000
			}
			return v
		},
		toRepresent: func(v any) any {
			if m, ok := v.(map[string]any); ok {
				return m["represent_value"]
			}
			if f, ok := numeric(v); ok {
				return f / 1000
			}
			return v
		},
	}
}

func crontabBehavior() behavior {
	conv := func(v any) any {
		if !truthy(v) {
			return defaultCrontab
		}
		return v
	}
	return behavior{toInner: conv, toRepresent: conv}
}

func stringIDBehavior() behavior {
	return behavior{
		toInner: func(v any) any {
			if s, ok := v.(string); ok {
				return strings.ReplaceAll(s, "-", "_")
			}
			return v
		},
		rules: []rule{func(o Options, v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return v, nil
			}
			for _, word := range reservedStringIDs {
				if strings.EqualFold(s, word) {
					return nil, newValidationError(KindInvalid, o, "value "+s+" is reserved")
				}
			}
			return v, nil
		}},
	}
}

func textParagraphBehavior(opts Options) behavior {
	return behavior{
		toRepresent: func(v any) any {
			switch val := v.(type) {
			case nil:
				return opts.Default
			case []any:
				parts := make([]string, 0, len(val))
				for _, p := range val {
					parts = append(parts, Stringify(p))
				}
				return strings.Join(parts, " ")
			case map[string]any:
				buf, _ := json.Marshal(val)
				return string(buf)
			}
			return v
		},
	}
}

func jsonBehavior() behavior {
	return behavior{
		toInner: func(v any) any {
			if s, ok := v.(string); ok {
				var out any
				if err := json.Unmarshal([]byte(s), &out); err == nil {
					return out
				}
			}
			return v
		},
		toRepresent: func(v any) any {
			switch v.(type) {
			case map[string]any, []any:
				buf, err := json.Marshal(v)
				if err != nil {
					return v
				}
				return string(buf)
			}
			return v
		},
	}
}
