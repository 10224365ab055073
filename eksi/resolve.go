package eksi

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultBaseURL is the origin all relative links and synthesised topic
// URLs are resolved against.
const DefaultBaseURL = "https://eksisozluk.com"

// topicIDPattern matches the numeric topic ID embedded in slugs and URLs,
// e.g. "pena--31782".
var topicIDPattern = regexp.MustCompile(`--(\d+)`)

// Resolve normalises free-form topic input into a fetchable URL and, when
// determinable, the numeric topic ID. Accepted forms, in order:
//
//   - absolute URL: passed through; ID pulled from a "--<digits>" segment
//   - bare digits: canonical /baslik/<id> URL
//   - slug with "--<digits>": canonical slug URL
//   - anything else: treated as a search phrase
//
// Pure function; never fails.
func Resolve(baseURL, input string) (fetchURL, id string) {
	input = strings.TrimSpace(input)

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		if m := topicIDPattern.FindStringSubmatch(input); m != nil {
			return input, m[1]
		}
		return input, ""
	}

	if input != "" && isDigits(input) {
		return baseURL + "/baslik/" + input, input
	}

	if m := topicIDPattern.FindStringSubmatch(input); m != nil {
		return baseURL + "/" + input, m[1]
	}

	return baseURL + "/?q=" + url.QueryEscape(input), ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// idFromURL extracts the "--<digits>" topic ID from a URL, if present.
func idFromURL(u string) string {
	if m := topicIDPattern.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

// slugFromURL derives the topic slug from the last path segment preceding
// "--<digits>", e.g. ".../pena--31782" → "pena".
func slugFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	seg := u.Path
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	if m := topicIDPattern.FindStringIndex(seg); m != nil {
		return seg[:m[0]]
	}
	return ""
}
