package calendar

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/your-org/meetingcal/internal/legistar"
)

func testSources(t *testing.T) []Source {
	t.Helper()
	sources, err := LookupSources([]string{"milwaukee", "milwaukeecounty"})
	if err != nil {
		t.Fatalf("lookup sources: %v", err)
	}
	return sources
}

func TestNormalizeBudgetHearing(t *testing.T) {
	src := testSources(t)[0]
	n := NewNormalizer(chicago)

	rec := legistar.Record{
		"EventId":   json.Number("42"),
		"EventDate": "/Date(1700000000000)/",
		"EventTime": "2:30 PM",
		"EventName": "Budget Hearing",
	}
	ev, ok := n.NormalizeRecord(src, rec)
	if !ok {
		t.Fatalf("expected record to normalize")
	}
	if ev.ID != "milwaukee-42" {
		t.Fatalf("unexpected id %q", ev.ID)
	}
	if ev.Title != "Budget Hearing" {
		t.Fatalf("unexpected title %q", ev.Title)
	}

	epochDay := time.UnixMilli(1700000000000).In(chicago)
	local := ev.StartDateTime.In(chicago)
	y, m, d := epochDay.Date()
	ly, lm, ld := local.Date()
	if y != ly || m != lm || d != ld {
		t.Fatalf("expected date %d-%02d-%02d, got %s", y, m, d, local)
	}
	if local.Hour() != 14 || local.Minute() != 30 || local.Second() != 0 {
		t.Fatalf("expected 14:30 local, got %s", local)
	}
	if ev.StartDateTime.Location() != time.UTC {
		t.Fatalf("expected UTC instant, got %s", ev.StartDateTime.Location())
	}
	if ev.Location != "TBD" {
		t.Fatalf("expected TBD location, got %q", ev.Location)
	}
	if ev.Source != "milwaukee" || ev.SourceLabel != "City of Milwaukee" || ev.SourceColor == "" {
		t.Fatalf("unexpected source metadata %+v", ev)
	}
}

func TestNormalizeIsPure(t *testing.T) {
	src := testSources(t)[1]
	n := NewNormalizer(chicago)
	rec := legistar.Record{
		"EventId":              json.Number("7"),
		"EventBodyId":          json.Number("3"),
		"EventBodyName":        "Finance Committee",
		"EventDate":            "2026-10-20T00:00:00",
		"EventTime":            "9:00 AM",
		"EventEndTime":         "11:30 AM",
		"EventLocation":        "Courthouse Room 201",
		"EventAgendaFile":      "https://example.test/agenda.pdf",
		"EventMinutesFile":     "",
		"EventMedia":           json.Number("555"),
		"EventLastModifiedUtc": "2026-10-10T12:00:00Z",
		"EventComment":         "Public hearing",
	}
	first, ok1 := n.NormalizeRecord(src, rec)
	second, ok2 := n.NormalizeRecord(src, rec)
	if !ok1 || !ok2 {
		t.Fatalf("expected record to normalize")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization is not deterministic:\n%+v\n%+v", first, second)
	}
	if first.Title != "Finance Committee" {
		t.Fatalf("expected body name title, got %q", first.Title)
	}
	if first.EndDateTime == nil || first.EndDateTime.In(chicago).Hour() != 11 {
		t.Fatalf("unexpected end time %v", first.EndDateTime)
	}
	if first.MinutesURL != nil {
		t.Fatalf("blank minutes should be null, got %q", *first.MinutesURL)
	}
	if first.VideoURL == nil || *first.VideoURL != "https://milwaukeecounty.granicus.com/MediaPlayer.php?clip_id=555" {
		t.Fatalf("unexpected video url %v", first.VideoURL)
	}
	if first.LastModified == nil || !first.LastModified.Equal(time.Date(2026, 10, 10, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected last modified %v", first.LastModified)
	}
	if first.RichText != "Public hearing" {
		t.Fatalf("unexpected rich text %q", first.RichText)
	}
}

func TestNormalizeDiscardsUndatedRecords(t *testing.T) {
	src := testSources(t)[0]
	n := NewNormalizer(chicago)
	records := []legistar.Record{
		{"EventId": json.Number("1"), "EventDate": "not a date", "EventAgendaDate": ""},
		{"EventId": json.Number("2")},
		{"EventDate": "2026-10-20T00:00:00"},
		{"EventGuid": "ABC-123", "EventDate": "2026-10-20T00:00:00"},
	}
	events := n.Normalize(src, records)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(events), events)
	}
	if events[0].ID != "milwaukee-ABC-123" {
		t.Fatalf("expected alternate id, got %q", events[0].ID)
	}
	if events[0].Title != "Government Meeting" {
		t.Fatalf("expected generic title, got %q", events[0].Title)
	}
}

func TestAgendaLinkSelection(t *testing.T) {
	src := testSources(t)[0]
	n := NewNormalizer(chicago)
	base := func() legistar.Record {
		return legistar.Record{"EventId": json.Number("9"), "EventDate": "2026-10-20T00:00:00"}
	}

	withFile := base()
	withFile["EventAgendaFile"] = "https://example.test/a.pdf"
	withFile["EventInSiteAgendaURL"] = "https://example.test/insite-agenda"
	if ev, _ := n.NormalizeRecord(src, withFile); ev.AgendaURL == nil || *ev.AgendaURL != "https://example.test/a.pdf" {
		t.Fatalf("expected agenda file, got %v", ev.AgendaURL)
	}

	alt := base()
	alt["EventInSiteAgendaURL"] = "https://example.test/insite-agenda"
	alt["EventInSiteURL"] = "https://example.test/meeting"
	if ev, _ := n.NormalizeRecord(src, alt); ev.AgendaURL == nil || *ev.AgendaURL != "https://example.test/insite-agenda" {
		t.Fatalf("expected in-site agenda, got %v", ev.AgendaURL)
	}

	same := base()
	same["EventInSiteAgendaURL"] = "https://example.test/meeting"
	same["EventInSiteURL"] = "https://example.test/meeting"
	ev, _ := n.NormalizeRecord(src, same)
	if ev.AgendaURL != nil {
		t.Fatalf("agenda must not point at the meeting page, got %q", *ev.AgendaURL)
	}
	if ev.MeetingURL == nil || *ev.MeetingURL != "https://example.test/meeting" {
		t.Fatalf("unexpected meeting url %v", ev.MeetingURL)
	}
}

func TestVideoLinkPrecedence(t *testing.T) {
	src := testSources(t)[0]
	n := NewNormalizer(chicago)

	rec := legistar.Record{
		"EventVideoPath":      "https://example.test/video",
		"EventVideoPathHTML5": "https://example.test/video.mp4",
		"EventMedia":          json.Number("1"),
	}
	if v := n.VideoURL(src, rec); v == nil || *v != "https://example.test/video" {
		t.Fatalf("expected explicit video path, got %v", v)
	}
	delete(rec, "EventVideoPath")
	if v := n.VideoURL(src, rec); v == nil || *v != "https://example.test/video.mp4" {
		t.Fatalf("expected html5 path, got %v", v)
	}
	delete(rec, "EventVideoPathHTML5")
	if v := n.VideoURL(src, rec); v == nil || *v != "https://milwaukee.granicus.com/MediaPlayer.php?clip_id=1" {
		t.Fatalf("expected templated path, got %v", v)
	}
	delete(rec, "EventMedia")
	if v := n.VideoURL(src, rec); v != nil {
		t.Fatalf("expected no video, got %q", *v)
	}

	noTemplate := src
	noTemplate.VideoURLTemplate = ""
	if v := n.VideoURL(noTemplate, legistar.Record{"EventMedia": json.Number("1")}); v != nil {
		t.Fatalf("expected no video without a template, got %q", *v)
	}
}

func TestLookupSources(t *testing.T) {
	sources, err := LookupSources([]string{" Milwaukee ", "milwaukee", "milwaukeecounty"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(sources) != 2 || sources[0].ID != "milwaukee" || sources[1].ID != "milwaukeecounty" {
		t.Fatalf("unexpected sources %+v", sources)
	}
	if eps := Endpoints(sources); eps["milwaukeecounty"] != "milwaukeecounty" {
		t.Fatalf("unexpected endpoints %v", eps)
	}
	if _, err := LookupSources([]string{"madison"}); err == nil {
		t.Fatalf("expected unknown source error")
	}
	if _, err := LookupSources(nil); err == nil {
		t.Fatalf("expected error for empty source list")
	}
}
