package calendar

import (
	"reflect"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestDeduplicateFillsGaps(t *testing.T) {
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, time.UTC)
	a := Event{ID: "milwaukee-1", Source: "milwaukee", BodyID: "7", StartDateTime: start, AgendaURL: strPtr("https://example.test/a.pdf")}
	b := Event{ID: "milwaukee-2", Source: "milwaukee", BodyID: "7", StartDateTime: start, VideoURL: strPtr("https://example.test/v")}

	out := Deduplicate([]Event{a, b})
	if len(out) != 1 {
		t.Fatalf("expected 1 event, got %d", len(out))
	}
	got := out[0]
	if got.ID != "milwaukee-1" {
		t.Fatalf("expected first event to win, got %q", got.ID)
	}
	if got.AgendaURL == nil || *got.AgendaURL != "https://example.test/a.pdf" {
		t.Fatalf("agenda lost: %v", got.AgendaURL)
	}
	if got.VideoURL == nil || *got.VideoURL != "https://example.test/v" {
		t.Fatalf("video not merged: %v", got.VideoURL)
	}
}

func TestDeduplicateNeverOverwrites(t *testing.T) {
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, time.UTC)
	first := Event{
		ID: "x-1", Source: "x", BodyID: "1", StartDateTime: start,
		Title:      "Original",
		MinutesURL: strPtr("https://example.test/first-minutes"),
		MeetingURL: strPtr(""),
		RichText:   "kept",
	}
	dup := Event{
		ID: "x-2", Source: "x", BodyID: "1", StartDateTime: start,
		Title:      "Replacement",
		MinutesURL: strPtr("https://example.test/second-minutes"),
		MeetingURL: strPtr("https://example.test/meeting"),
		RichText:   "ignored",
	}
	out := Deduplicate([]Event{first, dup})
	if len(out) != 1 {
		t.Fatalf("expected 1 event, got %d", len(out))
	}
	got := out[0]
	if got.Title != "Original" || got.RichText != "kept" {
		t.Fatalf("non-link fields changed: %+v", got)
	}
	if *got.MinutesURL != "https://example.test/first-minutes" {
		t.Fatalf("populated link was overwritten: %s", *got.MinutesURL)
	}
	if got.MeetingURL == nil || *got.MeetingURL != "https://example.test/meeting" {
		t.Fatalf("empty link should be filled: %v", got.MeetingURL)
	}
}

func TestDeduplicateKeepsDistinctAndOrder(t *testing.T) {
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "a-1", Source: "a", BodyID: "1", StartDateTime: start.Add(time.Hour)},
		{ID: "b-1", Source: "b", BodyID: "1", StartDateTime: start.Add(time.Hour)},
		{ID: "a-2", Source: "a", BodyID: "2", StartDateTime: start},
		{ID: "a-3", Source: "a", BodyID: "1", StartDateTime: start},
		{ID: "a-4", Source: "a", BodyID: "1", StartDateTime: start.Add(time.Hour).In(chicago)},
	}
	out := Deduplicate(events)
	var ids []string
	for _, ev := range out {
		ids = append(ids, ev.ID)
	}
	want := []string{"a-1", "b-1", "a-2", "a-3"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "a-1", Source: "a", BodyID: "1", StartDateTime: start},
		{ID: "a-2", Source: "a", BodyID: "1", StartDateTime: start, VideoURL: strPtr("https://example.test/v")},
		{ID: "a-3", Source: "a", BodyID: "2", StartDateTime: start},
	}
	once := Deduplicate(events)
	twice := Deduplicate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedupe is not idempotent:\n%+v\n%+v", once, twice)
	}
	if len(Deduplicate(nil)) != 0 {
		t.Fatalf("expected empty result for nil input")
	}
}
