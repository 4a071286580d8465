package calendar

import (
	"strings"
	"time"
)

// Deduplicate collapses events that share (source, bodyId, startDateTime).
// The first event seen for a key is kept; later duplicates only fill its
// empty agenda, minutes, video, meeting and rich-text fields. Order of
// first appearance is preserved.
func Deduplicate(events []Event) []Event {
	out := make([]Event, 0, len(events))
	index := make(map[string]int, len(events))
	for _, ev := range events {
		key := mergeKey(ev)
		if i, ok := index[key]; ok {
			fillGaps(&out[i], ev)
			continue
		}
		index[key] = len(out)
		out = append(out, ev)
	}
	return out
}

func mergeKey(ev Event) string {
	parts := make([]string, 0, 3)
	if ev.Source != "" {
		parts = append(parts, ev.Source)
	}
	if ev.BodyID != "" {
		parts = append(parts, ev.BodyID)
	}
	if !ev.StartDateTime.IsZero() {
		parts = append(parts, ev.StartDateTime.UTC().Format(time.RFC3339Nano))
	}
	return strings.Join(parts, "|")
}

func fillGaps(base *Event, dup Event) {
	fillLink(&base.AgendaURL, dup.AgendaURL)
	fillLink(&base.MinutesURL, dup.MinutesURL)
	fillLink(&base.VideoURL, dup.VideoURL)
	fillLink(&base.MeetingURL, dup.MeetingURL)
	if base.RichText == "" && dup.RichText != "" {
		base.RichText = dup.RichText
	}
}

func fillLink(dst **string, src *string) {
	if isEmpty(*dst) && !isEmpty(src) {
		*dst = src
	}
}
