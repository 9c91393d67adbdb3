package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleRoster = `
anchor_hour: 14
default_profile:
  days: [monday, tuesday, wednesday, thursday, friday]
  start: "08:00"
  end: "16:00"
countries:
  fr:
    start: "09:30"
    end: "17:30"
participants:
  - id: ada
    name: Ada Lovelace
    timezone: Europe/London
    country: gb
  - id: haruto
    name: Haruto Sato
    timezone: Asia/Tokyo
    country: JP
    work:
      days: [mon, tue, wed, thu]
      start: "10:00"
      end: "18:30"
`

func TestParseFullRoster(t *testing.T) {
	roster, err := Parse([]byte(sampleRoster))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if roster.AnchorHour == nil || *roster.AnchorHour != 14 {
		t.Errorf("anchor hour = %v, want 14", roster.AnchorHour)
	}
	if roster.DefaultProfile == nil || roster.DefaultProfile.Start != 8 || roster.DefaultProfile.End != 16 {
		t.Errorf("default profile = %+v", roster.DefaultProfile)
	}

	fr, ok := roster.CountryProfiles["FR"]
	if !ok {
		t.Fatal("country codes should be normalized to upper case")
	}
	if fr.Start != 9.5 || fr.End != 17.5 {
		t.Errorf("FR window = %v-%v, want 9.5-17.5", fr.Start, fr.End)
	}
	if !fr.Days.On(time.Monday) || fr.Days.On(time.Saturday) {
		t.Error("omitted days should default to Mon-Fri")
	}

	if len(roster.Participants) != 2 {
		t.Fatalf("got %d participants, want 2", len(roster.Participants))
	}

	ada := roster.Participants[0]
	if ada.CountryCode != "GB" {
		t.Errorf("participant country = %q, want GB", ada.CountryCode)
	}
	if ada.Profile != nil {
		t.Error("participant without a work override should have no profile")
	}

	haruto := roster.Participants[1]
	if haruto.Profile == nil {
		t.Fatal("work override should produce a profile")
	}
	if haruto.Profile.Start != 10 || haruto.Profile.End != 18.5 {
		t.Errorf("override window = %v-%v, want 10-18.5", haruto.Profile.Start, haruto.Profile.End)
	}
	if haruto.Profile.Days.On(time.Friday) {
		t.Error("override days should exclude Friday")
	}

	countries := roster.Countries()
	if len(countries) != 2 || countries[0] != "GB" || countries[1] != "JP" {
		t.Errorf("Countries() = %v, want [GB JP]", countries)
	}
}

func TestParseRejectsBadRosters(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no participants",
			yaml:    `participants: []`,
			wantErr: "no participants",
		},
		{
			name: "missing timezone",
			yaml: `
participants:
  - id: p1
    name: Nameless
`,
			wantErr: "missing timezone",
		},
		{
			name: "duplicate ids",
			yaml: `
participants:
  - {id: p1, timezone: UTC}
  - {id: p1, timezone: UTC}
`,
			wantErr: "duplicate id",
		},
		{
			name: "inverted work window",
			yaml: `
participants:
  - id: p1
    timezone: UTC
    work: {start: "17:00", end: "09:00"}
`,
			wantErr: "start must precede end",
		},
		{
			name: "bad country code",
			yaml: `
countries:
  FRA: {start: "09:00", end: "17:00"}
participants:
  - {id: p1, timezone: UTC}
`,
			wantErr: "ISO-3166",
		},
		{
			name: "unknown weekday",
			yaml: `
participants:
  - id: p1
    timezone: UTC
    work: {days: [funday], start: "09:00", end: "17:00"}
`,
			wantErr: "unknown weekday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(sampleRoster), 0o600); err != nil {
		t.Fatal(err)
	}

	roster, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(roster.Participants) != 2 {
		t.Errorf("got %d participants, want 2", len(roster.Participants))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"09:00", 9, false},
		{"09:30", 9.5, false},
		{"23:45", 23.75, false},
		{"0:00", 0, false},
		{"7", 7, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
