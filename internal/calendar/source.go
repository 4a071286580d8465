package calendar

import (
	"fmt"
	"strings"
)

// FieldMap names the raw record fields a source uses for each concept.
// An empty name means the source never carries that field.
type FieldMap struct {
	ID             string
	AltID          string
	BodyID         string
	BodyName       string
	Date           string
	FallbackDate   string
	Time           string
	EndTime        string
	Name           string
	Location       string
	AgendaFile     string
	InSiteAgenda   string
	MeetingLink    string
	MinutesFile    string
	VideoPath      string
	VideoPathHTML5 string
	MediaID        string
	LastModified   string
	Comment        string
}

// DefaultFieldMap is the Legistar Web API event schema.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		ID:             "EventId",
		AltID:          "EventGuid",
		BodyID:         "EventBodyId",
		BodyName:       "EventBodyName",
		Date:           "EventDate",
		FallbackDate:   "EventAgendaDate",
		Time:           "EventTime",
		EndTime:        "EventEndTime",
		Name:           "EventName",
		Location:       "EventLocation",
		AgendaFile:     "EventAgendaFile",
		InSiteAgenda:   "EventInSiteAgendaURL",
		MeetingLink:    "EventInSiteURL",
		MinutesFile:    "EventMinutesFile",
		VideoPath:      "EventVideoPath",
		VideoPathHTML5: "EventVideoPathHTML5",
		MediaID:        "EventMedia",
		LastModified:   "EventLastModifiedUtc",
		Comment:        "EventComment",
	}
}

// Source describes one upstream provider and how to read its records.
type Source struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
	// Endpoint is the Legistar client name, e.g. "milwaukeecounty".
	Endpoint string `json:"-"`
	// VideoURLTemplate builds a player link; "{media}" is replaced with the
	// record's media id.
	VideoURLTemplate string   `json:"-"`
	Fields           FieldMap `json:"-"`
}

var builtinSources = map[string]Source{
	"milwaukee": {
		ID:               "milwaukee",
		Label:            "City of Milwaukee",
		Color:            "#1f6feb",
		Endpoint:         "milwaukee",
		VideoURLTemplate: "https://milwaukee.granicus.com/MediaPlayer.php?clip_id={media}",
		Fields:           DefaultFieldMap(),
	},
	"milwaukeecounty": {
		ID:               "milwaukeecounty",
		Label:            "Milwaukee County",
		Color:            "#8250df",
		Endpoint:         "milwaukeecounty",
		VideoURLTemplate: "https://milwaukeecounty.granicus.com/MediaPlayer.php?clip_id={media}",
		Fields:           DefaultFieldMap(),
	},
}

// LookupSources resolves source ids against the built-in registry,
// preserving order and dropping repeats.
func LookupSources(ids []string) ([]Source, error) {
	seen := map[string]bool{}
	out := make([]Source, 0, len(ids))
	for _, raw := range ids {
		id := strings.ToLower(strings.TrimSpace(raw))
		if id == "" || seen[id] {
			continue
		}
		src, ok := builtinSources[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSource, id)
		}
		seen[id] = true
		out = append(out, src)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no calendar sources configured")
	}
	return out, nil
}

// Endpoints maps each source id to its Legistar client name.
func Endpoints(sources []Source) map[string]string {
	out := make(map[string]string, len(sources))
	for _, s := range sources {
		out[s.ID] = s.Endpoint
	}
	return out
}
