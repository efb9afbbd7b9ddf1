package util

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	cstr "github.com/shopmonkeyus/go-common/string"
)

// MaskURL returns a masked version of the URL string attempting to hide sensitive information.
func MaskURL(urlString string) (string, error) {
	u, err := url.Parse(urlString)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	var str strings.Builder
	str.WriteString(u.Scheme)
	str.WriteString("://")
	if u.User != nil {
		str.WriteString(cstr.Mask(u.User.Username()))
		if pass, ok := u.User.Password(); ok {
			str.WriteString(":")
			str.WriteString(cstr.Mask(pass))
		}
		str.WriteString("@")
	}
	str.WriteString(u.Host)
	str.WriteString(u.Path)
	var qs []string
	for k, v := range u.Query() {
		qs = append(qs, fmt.Sprintf("%s=%s", k, cstr.Mask(strings.Join(v, ","))))
	}
	sort.Strings(qs)
	if len(qs) > 0 {
		str.WriteString("?")
		str.WriteString(strings.Join(qs, "&"))
	}
	return str.String(), nil
}

var isJWT = regexp.MustCompile(`^[a-zA-Z0-9-_]+\.[a-zA-Z0-9-_]+\.[a-zA-Z0-9-_]+$`)

// MaskToken masks an API token. The header of a JWT is left readable.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if isJWT.MatchString(token) {
		i := strings.IndexByte(token, '.')
		return token[:i+1] + cstr.Mask(token[i+1:])
	}
	return cstr.Mask(token)
}

// MaskSettings returns a copy of the settings with the token and url values masked.
func MaskSettings(kv map[string]any) map[string]any {
	res := make(map[string]any, len(kv))
	for k, v := range kv {
		s, ok := v.(string)
		switch {
		case !ok:
			res[k] = v
		case strings.Contains(k, "token"):
			res[k] = MaskToken(s)
		case strings.HasSuffix(k, "url"):
			if m, err := MaskURL(s); err == nil {
				res[k] = m
			} else {
				res[k] = cstr.Mask(s)
			}
		default:
			res[k] = s
		}
	}
	return res
}
