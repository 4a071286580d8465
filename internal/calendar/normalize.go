package calendar

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/meetingcal/internal/legistar"
)

const (
	defaultTitle    = "Government Meeting"
	defaultLocation = "TBD"
)

// Normalizer maps raw source records onto Event. It is stateless apart
// from the zone used to read local dates and times.
type Normalizer struct {
	loc *time.Location
}

func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// Normalize converts records, dropping any that cannot be placed on a timeline.
func (n *Normalizer) Normalize(src Source, records []legistar.Record) []Event {
	out := make([]Event, 0, len(records))
	for _, rec := range records {
		if ev, ok := n.NormalizeRecord(src, rec); ok {
			out = append(out, ev)
		}
	}
	return out
}

// NormalizeRecord converts a single record. ok is false when the record has
// no native id or no resolvable start date.
func (n *Normalizer) NormalizeRecord(src Source, rec legistar.Record) (Event, bool) {
	f := src.Fields

	nativeID := text(rec, f.ID)
	if nativeID == "" {
		nativeID = text(rec, f.AltID)
	}
	if nativeID == "" {
		return Event{}, false
	}

	start, ok := resolveStart(field(rec, f.Date), field(rec, f.FallbackDate), field(rec, f.Time), n.loc)
	if !ok {
		return Event{}, false
	}

	bodyName := text(rec, f.BodyName)
	title := firstNonEmpty(text(rec, f.Name), bodyName, defaultTitle)
	location := firstNonEmpty(text(rec, f.Location), defaultLocation)

	ev := Event{
		ID:            src.ID + "-" + nativeID,
		Source:        src.ID,
		SourceLabel:   src.Label,
		SourceColor:   src.Color,
		BodyName:      bodyName,
		BodyID:        text(rec, f.BodyID),
		Title:         title,
		Location:      location,
		StartDateTime: start.UTC(),
		EndDateTime:   n.endTime(rec, f, start),
		AgendaURL:     agendaURL(rec, f),
		MinutesURL:    optional(text(rec, f.MinutesFile)),
		VideoURL:      n.VideoURL(src, rec),
		MeetingURL:    optional(text(rec, f.MeetingLink)),
		LastModified:  n.lastModified(rec, f),
		RichText:      text(rec, f.Comment),
	}
	return ev, true
}

// VideoURL picks the explicit video path, then the HTML5 path, then a link
// built from the source template and the media id.
func (n *Normalizer) VideoURL(src Source, rec legistar.Record) *string {
	f := src.Fields
	if v := text(rec, f.VideoPath); v != "" {
		return &v
	}
	if v := text(rec, f.VideoPathHTML5); v != "" {
		return &v
	}
	media := text(rec, f.MediaID)
	if src.VideoURLTemplate == "" || media == "" {
		return nil
	}
	v := strings.ReplaceAll(src.VideoURLTemplate, "{media}", media)
	return &v
}

// Detail extracts the links served by the event detail lookup.
func (n *Normalizer) Detail(src Source, rec legistar.Record) EventDetail {
	return EventDetail{
		VideoURL:   n.VideoURL(src, rec),
		MinutesURL: optional(text(rec, src.Fields.MinutesFile)),
	}
}

func (n *Normalizer) endTime(rec legistar.Record, f FieldMap, start time.Time) *time.Time {
	raw := field(rec, f.EndTime)
	if raw == nil {
		return nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	end := applyTimeOfDay(start, raw, n.loc)
	if end.Equal(start) {
		return nil
	}
	end = end.UTC()
	return &end
}

func (n *Normalizer) lastModified(rec legistar.Record, f FieldMap) *time.Time {
	t, ok := ParseDate(field(rec, f.LastModified), n.loc)
	if !ok {
		return nil
	}
	t = t.UTC()
	return &t
}

// agendaURL prefers the agenda file. The in-site agenda link is used only
// when it is not just the meeting detail page.
func agendaURL(rec legistar.Record, f FieldMap) *string {
	if v := text(rec, f.AgendaFile); v != "" {
		return &v
	}
	alt := text(rec, f.InSiteAgenda)
	if alt == "" || alt == text(rec, f.MeetingLink) {
		return nil
	}
	return &alt
}

func field(rec legistar.Record, name string) any {
	if name == "" {
		return nil
	}
	return rec[name]
}

// text renders a scalar field as trimmed text; non-scalars read as empty.
func text(rec legistar.Record, name string) string {
	switch v := field(rec, name).(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
