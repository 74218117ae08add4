// Package calendarlink encodes a calendar event's web link and id into the
// single string stored on an installment.
package calendarlink

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

// Separator joins the web link and the event id.
const Separator = "|"

// ErrNoEventID is returned when no event id can be recovered from a link.
var ErrNoEventID = errors.New("calendarlink: no event id in link")

// Encode combines the event's web link and id.
func Encode(htmlLink, eventID string) string {
	return htmlLink + Separator + eventID
}

// HTMLLink returns the web link part of an encoded link.
func HTMLLink(link string) string {
	if i := strings.LastIndex(link, Separator); i >= 0 {
		return link[:i]
	}
	return link
}

// EventID recovers the event id from an encoded link. Links stored before the
// id was appended are handled by decoding the eid query parameter.
func EventID(link string) (string, error) {
	if i := strings.LastIndex(link, Separator); i >= 0 {
		if id := strings.TrimSpace(link[i+len(Separator):]); id != "" {
			return id, nil
		}
		return "", ErrNoEventID
	}
	return legacyEventID(link)
}

func legacyEventID(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", ErrNoEventID
	}
	eid := u.Query().Get("eid")
	if eid == "" {
		return "", ErrNoEventID
	}

	raw := strings.TrimRight(eid, "=")
	raw = strings.NewReplacer("-", "+", "_", "/").Replace(raw)
	decoded, err := base64.RawStdEncoding.DecodeString(raw)
	if err != nil {
		return "", ErrNoEventID
	}

	parts := strings.Split(string(decoded), "_")
	if len(parts) < 2 {
		return "", ErrNoEventID
	}
	id, _, _ := strings.Cut(parts[len(parts)-1], "@")
	if id == "" {
		return "", ErrNoEventID
	}
	return id, nil
}
