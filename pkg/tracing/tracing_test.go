package tracing

import (
	"context"
	"testing"
)

func TestParseAttributes(t *testing.T) {
	got := ParseAttributes(" service.namespace = meetingcal ,broken,, env=prod")
	if len(got) != 2 {
		t.Fatalf("expected 2 attributes, got %v", got)
	}
	if got["service.namespace"] != "meetingcal" || got["env"] != "prod" {
		t.Fatalf("unexpected attributes %v", got)
	}
	if len(ParseAttributes("")) != 0 {
		t.Fatalf("expected empty map for empty input")
	}
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "meetingcal"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
