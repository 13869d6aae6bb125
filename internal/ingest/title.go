package ingest

import (
	"net/url"
	"time"
)

// DraftTitle derives a human-readable draft name from the captured page
// URL, falling back to a dated generic name when the URL is unusable.
func DraftTitle(pageURL string, at time.Time) string {
	stamp := at.Format("Jan 2, 2006 3:04 PM")

	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return "Session @ " + stamp
	}

	return u.Hostname() + " @ " + stamp
}
