package util

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"
)

// JSONStringify converts any value to a JSON string.
func JSONStringify(val any) string {
	buf, _ := json.Marshal(val)
	return string(buf)
}

// Exists returns true if the filename or directory specified by fn exists.
func Exists(fn string) bool {
	if _, err := os.Stat(fn); os.IsNotExist(err) {
		return false
	}
	return true
}

// SliceContains returns true if the slice contains the value.
func SliceContains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}

// SplitPath strips leading and trailing slashes and returns the path segments.
func SplitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "/")
}

// JoinPath joins segments into a path with a leading and trailing slash.
func JoinPath(segments ...string) string {
	var parts []string
	for _, s := range segments {
		parts = append(parts, SplitPath(s)...)
	}
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/") + "/"
}

var pathParamRegex = regexp.MustCompile(`\{([^{}]+)\}`)

// FormatPath substitutes the {param} placeholders in path, returning false if
// any placeholder has no value.
func FormatPath(path string, params map[string]string) (string, bool) {
	ok := true
	res := pathParamRegex.ReplaceAllStringFunc(path, func(m string) string {
		val, found := params[m[1:len(m)-1]]
		if !found || val == "" {
			ok = false
			return m
		}
		return val
	})
	return res, ok
}
