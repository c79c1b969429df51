package normalize

import (
	"net/url"
	"strings"
	"time"

	"go-job-harvester/internal/models"

	"golang.org/x/text/unicode/norm"
)

type Normalizer struct {
	now func() time.Time
}

func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock is New with a fixed time source.
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize turns raw listing fields into a canonical record. pageOrigin is the
// scheme and host of the page the listing came from and may be empty.
func (n *Normalizer) Normalize(raw models.RawFields, pageOrigin string) models.JobRecord {
	return models.JobRecord{
		Title:      orUnknown(CleanText(raw[models.FieldTitle])),
		Company:    orUnknown(CleanText(raw[models.FieldCompany])),
		Location:   orUnknown(CleanText(raw[models.FieldLocation])),
		Link:       AbsoluteLink(raw[models.FieldLink], pageOrigin),
		PostedDate: orUnknown(CleanText(raw[models.FieldPostedDate])),
		ScrapedAt:  n.now().UTC(),
	}
}

// CleanText folds NBSPs and whitespace runs into single spaces, trims the
// result and puts it in NFC form.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}

func orUnknown(s string) string {
	if s == "" {
		return models.Unknown
	}
	return s
}

// Origin returns scheme://host of pageURL, or "" when it has neither.
func Origin(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// AbsoluteLink resolves link against origin when it has no scheme. Empty links
// and the unknown sentinel come back empty.
func AbsoluteLink(link, origin string) string {
	link = strings.TrimSpace(stripTabsAndNewlines(link))
	if link == "" || link == models.Unknown {
		return ""
	}

	u, err := url.Parse(link)
	if err != nil {
		if origin != "" && !hasScheme(link) {
			return joinOrigin(origin, link)
		}
		return link
	}
	if u.Scheme == "" && origin != "" {
		base, err := url.Parse(origin)
		if err != nil || base.Scheme == "" {
			return link
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme == "" {
		return link
	}
	return stripTracking(u)
}

// stripTabsAndNewlines removes ASCII tab, LF and CR anywhere in the link,
// as browsers do before parsing an href.
func stripTabsAndNewlines(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

// hasScheme reports whether s starts with "scheme:".
func hasScheme(s string) bool {
	for i, r := range s {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9', r == '+', r == '-', r == '.':
			if i == 0 {
				return false
			}
		case r == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}

// joinOrigin places a link that net/url refuses under origin without
// re-encoding it.
func joinOrigin(origin, link string) string {
	switch {
	case strings.HasPrefix(link, "//"):
		if i := strings.Index(origin, "://"); i > 0 {
			return origin[:i+1] + link
		}
		return link
	case strings.HasPrefix(link, "/"):
		return origin + link
	default:
		return origin + "/" + link
	}
}

// stripTracking drops the fragment and click-tracking query parameters. The
// query is left byte-for-byte alone when nothing is removed.
func stripTracking(u *url.URL) string {
	u.Fragment = ""
	u.RawFragment = ""
	if u.RawQuery == "" {
		return u.String()
	}

	q := u.Query()
	removed := false
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "gclid" || lk == "fbclid" || lk == "msclkid" {
			q.Del(k)
			removed = true
		}
	}
	if removed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
