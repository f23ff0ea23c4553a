package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// An access key is the 44-digit identifier of a government-registered fiscal
// document and the primary deduplication key. PDF and manual uploads carry a
// synthetic key instead: a fixed non-numeric prefix plus merchant/number/
// series, which can never collide with a genuine 44-digit key.
const (
	accessKeyLen = 44

	// syntheticPrefix marks keys built from document fields rather than
	// extracted from the document itself.
	syntheticPrefix = "SYN"
	// timestampPrefix marks last-resort keys; these are not deterministic,
	// so duplicate detection cannot work for them.
	timestampPrefix = "TMP"

	keyDelimiter = "-"
)

var (
	accessKeyRe = regexp.MustCompile(`^\d{44}$`)
	digitRunRe  = regexp.MustCompile(`\d{44}`)

	// Portal pages label the key "Chave de acesso" and often render it with
	// spaces between digit groups.
	labelledKeyRe = regexp.MustCompile(`(?i)chave\s+de\s+acesso\D{0,100}?((?:\d[\s.]*){44})`)

	nonDigitRe = regexp.MustCompile(`\D`)
)

// IsAccessKey reports whether s is a well-formed 44-digit access key.
func IsAccessKey(s string) bool {
	return accessKeyRe.MatchString(s)
}

// KeyFromPayload extracts an access key from a QR payload: either the bare
// 44-digit key, a portal URL carrying the key in its query or path, or any
// text containing a 44-digit run. Fails with a malformed-input error when the
// payload is neither, before any network call is attempted.
func KeyFromPayload(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", malformed("empty QR payload", nil)
	}

	if IsAccessKey(payload) {
		return payload, nil
	}

	if u, err := url.Parse(payload); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if key, ok := keyFromURL(u); ok {
			return key, nil
		}

		// A portal URL without an inline key is still valid input; the
		// caller must fetch the page and search it (see KeyFromBody).
		return "", keyNotFound(fmt.Sprintf("no access key in URL %s", scrubURL(u)))
	}

	if key := digitRunRe.FindString(payload); key != "" {
		return key, nil
	}

	return "", malformed("payload is not an access key, URL, or text containing one", nil)
}

// keyFromURL looks for the key in the query parameters the state portals
// use. The NFC-e QR format packs parameters into "p" separated by pipes.
func keyFromURL(u *url.URL) (string, bool) {
	q := u.Query()

	for _, param := range []string{"chNFe", "chave", "p"} {
		v := q.Get(param)
		if v == "" {
			continue
		}

		for _, part := range strings.Split(v, "|") {
			if IsAccessKey(part) {
				return part, true
			}
		}
	}

	if key := digitRunRe.FindString(u.String()); key != "" {
		return key, true
	}

	return "", false
}

// KeyFromBody searches a fetched page body for the access key: first the
// labelled "Chave de acesso" form, then any bare 44-digit run. Returns a
// typed key-not-found error otherwise.
func KeyFromBody(body string) (string, error) {
	if m := labelledKeyRe.FindStringSubmatch(body); m != nil {
		key := nonDigitRe.ReplaceAllString(m[1], "")
		if IsAccessKey(key) {
			return key, nil
		}
	}

	if key := digitRunRe.FindString(body); key != "" {
		return key, nil
	}

	return "", keyNotFound("no 44-digit access key found in document body")
}

// SyntheticKey builds the deterministic fallback key for documents without a
// genuine access key. Same merchant + number + series always produces the
// same key, so duplicate detection keeps working for re-uploads.
func SyntheticKey(merchantTaxID, number, series string) string {
	clean := func(s string) string {
		return nonDigitRe.ReplaceAllString(strings.TrimSpace(s), "")
	}

	return strings.Join([]string{
		syntheticPrefix, clean(merchantTaxID), clean(number), clean(series),
	}, keyDelimiter)
}

// TimestampKey is the last-resort key when not even merchant/number fields
// were extracted. It is unique per call, so re-submitting the same document
// will not be detected as a duplicate; callers are told via IsTimestampKey.
func TimestampKey(now time.Time) string {
	return fmt.Sprintf("%s%s%d", timestampPrefix, keyDelimiter, now.UnixNano())
}

// IsSyntheticKey reports whether key was built by SyntheticKey.
func IsSyntheticKey(key string) bool {
	return strings.HasPrefix(key, syntheticPrefix+keyDelimiter)
}

// IsTimestampKey reports whether key is a nondeterministic last-resort key.
func IsTimestampKey(key string) bool {
	return strings.HasPrefix(key, timestampPrefix+keyDelimiter)
}

// scrubURL strips query parameters and fragments before a URL is echoed in
// an error or log line; portal URLs embed the full access key and session
// tokens in the query string.
func scrubURL(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}
