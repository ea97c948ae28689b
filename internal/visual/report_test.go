package visual

import (
	"strings"
	"testing"
)

func TestReportPalette(t *testing.T) {
	r := &Report{MainColor: "#0057FF", SubColors: []string{"#FF3300", "#FFFFFF"}}
	got := r.Palette()
	if len(got) != 3 || got[0] != "#0057FF" {
		t.Errorf("Palette = %v", got)
	}

	// A main color plus three subs still yields at most 3 entries.
	full := &Report{MainColor: "#FF0000", SubColors: []string{"#00FF00", "#0000FF", "#FFAA00"}}
	if p := full.Palette(); len(p) != 3 || p[2] != "#0000FF" {
		t.Errorf("Palette with 3 subs = %v, want 3 entries", p)
	}

	empty := &Report{}
	if p := empty.Palette(); p != nil {
		t.Errorf("empty report Palette = %v, want nil", p)
	}
}

func TestColorSummary(t *testing.T) {
	r := &Report{
		MainColor: "#0057FF",
		SubColors: []string{"#FF3300"},
		Colors:    []ColorRatio{{Hex: "#0057FF", Ratio: 0.42}},
	}
	s := r.ColorSummary()
	for _, want := range []string{"#0057FF", "#FF3300", "42%"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q: %s", want, s)
		}
	}

	if s := (&Report{}).ColorSummary(); s != "" {
		t.Errorf("empty report summary = %q, want empty", s)
	}
}

func TestImageSummary(t *testing.T) {
	r := &Report{
		ImageKind:                ImageKindPhoto,
		ImageAreaRatio:           0.25,
		BackgroundImageAreaRatio: 0.10,
		PeopleVerdict:            PeopleYes,
	}
	s := r.ImageSummary()
	for _, want := range []string{ImageKindPhoto, "35%", PeopleYes} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q: %s", want, s)
		}
	}
}

func TestClassifyImageKind(t *testing.T) {
	tests := []struct {
		svg, raster int
		want        string
	}{
		{0, 0, ""},
		{10, 2, ImageKindIllustration},
		{1, 9, ImageKindPhoto},
		{4, 5, ImageKindMixed},
	}
	for _, tt := range tests {
		if got := classifyImageKind(tt.svg, tt.raster); got != tt.want {
			t.Errorf("classifyImageKind(%d, %d) = %q, want %q", tt.svg, tt.raster, got, tt.want)
		}
	}
}
