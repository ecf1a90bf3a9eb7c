package schema

import (
	"errors"
	"testing"
)

func TestValidateItinerary(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "valid",
			doc: `{"destination": "Lisbon", "days": [
				{"day": 1, "entries": [{"name": "Alfama walk", "kind": "attraction"}]}
			]}`,
		},
		{
			name:    "missing destination",
			doc:     `{"days": [{"day": 1, "entries": []}]}`,
			wantErr: true,
		},
		{
			name:    "empty days",
			doc:     `{"destination": "Lisbon", "days": []}`,
			wantErr: true,
		},
		{
			name: "bad entry kind",
			doc: `{"destination": "Lisbon", "days": [
				{"day": 1, "entries": [{"name": "x", "kind": "shopping"}]}
			]}`,
			wantErr: true,
		},
		{
			name: "negative cost",
			doc: `{"destination": "Lisbon", "days": [
				{"day": 1, "entries": [{"name": "x", "kind": "dining", "cost": -5}]}
			]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("itinerary", ItinerarySchema, []byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllIssues(t *testing.T) {
	err := Validate("reflection", ReflectionSchema, []byte(`{}`))
	if err == nil {
		t.Fatal("expected validation failure")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Issues) < 2 {
		t.Errorf("both missing required fields should be reported, got %v", ve.Issues)
	}
}

func TestDecodeValidated(t *testing.T) {
	var p UserProfile
	doc := []byte(`{"destination": "Kyoto", "adults": 2, "children": 1, "days": 7, "pace": "relaxed"}`)
	if err := DecodeValidated("user_profile", ProfileSchema, doc, &p); err != nil {
		t.Fatal(err)
	}
	if p.Destination != "Kyoto" || p.Days != 7 || p.Children != 1 {
		t.Errorf("decoded profile = %+v", p)
	}

	bad := []byte(`{"destination": "", "adults": 0, "children": 0, "days": 0}`)
	if err := DecodeValidated("user_profile", ProfileSchema, bad, &p); err == nil {
		t.Error("out-of-range profile should fail validation")
	}
}

func TestProfileDefaults(t *testing.T) {
	p := DefaultProfile()
	if !p.IsEmpty() {
		t.Error("default profile should read as empty")
	}
	if p.Adults != 2 || p.Days != 3 || p.Pace != "moderate" {
		t.Errorf("unexpected defaults: %+v", p)
	}
}

func TestItineraryJSONNilSafe(t *testing.T) {
	var it *Itinerary
	if got := it.JSON(); got != "{}" {
		t.Errorf("nil itinerary renders %q, want {}", got)
	}
}
