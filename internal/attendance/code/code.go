// Package code derives daily attendance codes and check-in URLs for sessions.
//
// A code is the first eight characters of "<sessionID>-<YYYY-MM-DD>", upper-cased.
// It is not a secret: anyone who knows the session ID and the date can compute it.
// It changes only when the calendar date in the configured location rolls over.
package code

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Length is the number of characters kept from the session/date string.
const Length = 8

const dateLayout = "2006-01-02"

// ErrInvalidOrigin is returned when the base origin is not an absolute http(s) URL.
var ErrInvalidOrigin = errors.New("invalid check-in origin")

// Derive returns the attendance code for sessionID on the calendar date of date.
// Inputs shorter than Length yield a shorter code; there is no padding.
func Derive(sessionID string, date time.Time) string {
	raw := []rune(sessionID + "-" + date.Format(dateLayout))
	if len(raw) > Length {
		raw = raw[:Length]
	}
	return strings.ToUpper(string(raw))
}

// Normalize trims and upper-cases a submitted code.
func Normalize(submitted string) string {
	return strings.ToUpper(strings.TrimSpace(submitted))
}

// CheckinURL builds <origin>/attendance/<sessionID>?code=<code>.
func CheckinURL(origin, sessionID, code string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidOrigin
	}
	// The session segment is appended verbatim so ids like ".." are never cleaned away.
	base := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/attendance/" + sessionID
	u.RawPath = base + "/attendance/" + url.PathEscape(sessionID)
	u.RawQuery = url.Values{"code": {code}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// Issued is the code and URL handed to an instructor for one session on one day.
type Issued struct {
	SessionID  string
	Code       string
	CheckinURL string
	Date       string // YYYY-MM-DD in the generator's location
}

// Generator derives codes against a clock and a calendar location.
type Generator struct {
	loc  *time.Location
	nowF func() time.Time
}

// NewGenerator returns a Generator keyed on dates in loc (UTC if nil).
func NewGenerator(loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{loc: loc, nowF: time.Now}
}

// WithClock returns a copy of g that reads the current time from nowF.
func (g *Generator) WithClock(nowF func() time.Time) *Generator {
	cp := *g
	cp.nowF = nowF
	return &cp
}

// Today returns the current time in the generator's location.
func (g *Generator) Today() time.Time {
	return g.nowF().In(g.loc)
}

// Expected returns today's code for sessionID.
func (g *Generator) Expected(sessionID string) string {
	return Derive(sessionID, g.Today())
}

// Matches reports whether submitted equals today's code for sessionID, ignoring case and surrounding space.
func (g *Generator) Matches(sessionID, submitted string) bool {
	return submitted != "" && Normalize(submitted) == g.Expected(sessionID)
}

// Issue returns today's code and check-in URL for sessionID under origin.
func (g *Generator) Issue(origin, sessionID string) (*Issued, error) {
	today := g.Today()
	c := Derive(sessionID, today)
	u, err := CheckinURL(origin, sessionID, c)
	if err != nil {
		return nil, err
	}
	return &Issued{SessionID: sessionID, Code: c, CheckinURL: u, Date: today.Format(dateLayout)}, nil
}
