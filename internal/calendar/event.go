package calendar

import "time"

// Event is one meeting in canonical form. Instants are kept in UTC.
type Event struct {
	ID            string     `json:"id"`
	Source        string     `json:"source"`
	SourceLabel   string     `json:"sourceLabel"`
	SourceColor   string     `json:"sourceColor"`
	BodyName      string     `json:"bodyName"`
	BodyID        string     `json:"bodyId"`
	Title         string     `json:"title"`
	Location      string     `json:"location"`
	StartDateTime time.Time  `json:"startDateTime"`
	EndDateTime   *time.Time `json:"endDateTime"`
	AgendaURL     *string    `json:"agendaUrl"`
	MinutesURL    *string    `json:"minutesUrl"`
	VideoURL      *string    `json:"videoUrl"`
	MeetingURL    *string    `json:"meetingUrl"`
	LastModified  *time.Time `json:"lastModified"`
	RichText      string     `json:"richText"`
}

// CachePayload is the snapshot written after every successful sync.
type CachePayload struct {
	Events    []Event   `json:"events"`
	FetchedAt time.Time `json:"fetchedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Stale     bool      `json:"stale,omitempty"`
}

// EventsResponse is what GetEvents hands back to the transport.
type EventsResponse struct {
	Events    []Event   `json:"events"`
	FetchedAt time.Time `json:"fetchedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	FromCache bool      `json:"fromCache"`
	Stale     bool      `json:"stale,omitempty"`
}

// EventDetail carries the links resolved from a single-event lookup.
type EventDetail struct {
	VideoURL   *string `json:"videoUrl"`
	MinutesURL *string `json:"minutesUrl"`
}

func newResponse(p CachePayload, fromCache, stale bool) *EventsResponse {
	events := p.Events
	if events == nil {
		events = []Event{}
	}
	return &EventsResponse{
		Events:    events,
		FetchedAt: p.FetchedAt,
		ExpiresAt: p.ExpiresAt,
		FromCache: fromCache,
		Stale:     stale,
	}
}

func isEmpty(s *string) bool {
	return s == nil || *s == ""
}
