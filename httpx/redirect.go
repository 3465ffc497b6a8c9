package httpx

import "strings"

var absolutePrefixes = []string{"http://", "https://", "ftp://", "ftps://"}

func isAbsoluteLocation(loc string) bool {
	if len(loc) < 8 {
		return false
	}
	for _, p := range absolutePrefixes {
		if strings.EqualFold(loc[:len(p)], p) {
			return true
		}
	}
	return false
}

// resolveLocation turns a Location value into an absolute URL against cur.
// Relative values are joined like file paths: one starting with '/'
// replaces the path, anything else lands in the directory of the current
// path.
func resolveLocation(cur Locator, location string) string {
	if isAbsoluteLocation(location) {
		return location
	}
	var p string
	switch {
	case strings.HasPrefix(location, "/"):
		p = location
	case len(location) > 1 && cur.Path != "":
		dir := "/"
		if i := strings.LastIndexByte(cur.Path, '/'); i >= 0 {
			dir = cur.Path[:i+1]
		}
		p = dir + location
	default:
		p = "/" + location
	}
	return cur.Scheme + "://" + cur.Authority() + p
}

// redirectTarget parses an absolute redirect URL and refuses it when the
// decoded credentials or path carry control characters.
func redirectTarget(raw string) (Locator, error) {
	loc, err := ParseLocator(raw)
	if err != nil {
		return Locator{}, &RedirectError{Location: raw, Reason: err.Error()}
	}
	path, err := loc.DecodedPath()
	if err != nil {
		return Locator{}, &RedirectError{Location: raw, Reason: err.Error()}
	}
	for _, s := range []string{loc.User, loc.Password, path} {
		if hasControl(s) {
			return Locator{}, &RedirectError{Location: raw, Reason: "control character in decoded URL"}
		}
	}
	return loc, nil
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return true
		}
	}
	return false
}
