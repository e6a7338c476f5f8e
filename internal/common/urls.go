package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// Registered domain with an alphabetic TLD of at least two letters.
	domainPattern = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)
	ipv6Pattern   = regexp.MustCompile(`^[0-9a-fA-F:]+$`)

	// Candidate URLs in free text: explicit scheme, www-prefixed, or a bare
	// domain with an optional path. Candidates are validated afterwards.
	urlCandidatePattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+|\b[a-z0-9][a-z0-9-]*(?:\.[a-z0-9][a-z0-9-]*)*\.[a-z]{2,}(?:/[^\s<>"']*)?`)
)

// NormalizeURL returns the canonical form of a URL: lowercased scheme and
// host, IDNA-encoded host, default ports stripped, path dot-segments resolved
// and re-quoted, query and fragment dropped. Normalization is idempotent and
// fails open: any input it cannot parse is returned unchanged.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if scheme == "" || host == "" {
		return rawURL
	}

	if strings.Contains(host, ":") {
		// IPv6 literal, brackets stripped by Hostname
		host = "[" + host + "]"
	} else if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = host + ":" + port
	}

	return scheme + "://" + host + quotePath(normalizePath(u.Path))
}

// normalizePath collapses repeated slashes and resolves "." and ".."
// segments, clamping at the root. The trailing slash is preserved since it
// can be significant to the origin server.
func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	trailingSlash := strings.HasSuffix(p, "/")
	var segments []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, seg)
		}
	}
	result := "/" + strings.Join(segments, "/")
	if trailingSlash && result != "/" {
		result += "/"
	}
	return result
}

// quotePath percent-encodes every byte outside the unreserved set, keeping
// slashes intact. Re-quoting an already quoted path is a no-op because the
// parser decodes before this runs.
func quotePath(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case c == '/' || c == '-' || c == '_' || c == '.' || c == '~':
			b.WriteByte(c)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

// IsValidURL reports whether a string is an absolute http(s) URL with a
// plausible host: a registered domain, localhost, an IPv4 address, or an
// IPv6 literal.
func IsValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "localhost":
	case domainPattern.MatchString(host):
	case isIPv4(host):
	case strings.Contains(host, ":") && ipv6Pattern.MatchString(host):
	default:
		return false
	}

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return false
		}
	}

	return true
}

func isIPv4(host string) bool {
	octets := strings.Split(host, ".")
	if len(octets) != 4 {
		return false
	}
	for _, o := range octets {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 || n > 255 || (len(o) > 1 && o[0] == '0') {
			return false
		}
	}
	return true
}

// ExtractURLs finds the valid URLs mentioned in free-form text, in order of
// first appearance with duplicates removed. knownURLs are structured
// candidates (for example hyperlink targets from message markup) appended
// after the text scan; they skip the free-text pattern, which would cut them
// at delimiters like quotes that are legal inside a URL. Scheme-less
// candidates get an https:// prefix before validation. A text candidate
// directly preceded by "@" is taken to be the domain part of an email address
// and skipped.
func ExtractURLs(text string, knownURLs ...string) []string {
	matches := urlCandidatePattern.FindAllStringIndex(text, -1)

	candidates := make([]string, 0, len(matches)+len(knownURLs))
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && text[start-1] == '@' {
			continue
		}
		candidates = append(candidates, text[start:end])
	}
	candidates = append(candidates, knownURLs...)
	if len(candidates) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(candidates))
	var urls []string
	for _, match := range candidates {
		candidate := strings.TrimRight(match, `.,;!?)"]'`)
		if candidate == "" {
			continue
		}

		lower := strings.ToLower(candidate)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			candidate = "https://" + candidate
		}

		if !IsValidURL(candidate) {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		urls = append(urls, candidate)
	}
	return urls
}
