package layout

import (
	"fmt"
	"testing"

	"github.com/matzehuels/stemma/pkg/family"
)

func household(id string, spouses int) family.Household {
	h := family.NewHousehold(id, family.Member{Name: id, Gender: family.Male})
	for i := range spouses {
		h.Spouses = append(h.Spouses, family.Member{Name: fmt.Sprintf("%s-spouse-%d", id, i), Gender: family.Female})
	}
	return h
}

func TestResolve(t *testing.T) {
	tests := []struct {
		spouses int
		want    Size
	}{
		{0, Size{200, 120}},
		{1, Size{400, 120}},
		{2, Size{420, 300}},
		{3, Size{640, 300}},
		{5, Size{1080, 300}},
	}
	for _, tt := range tests {
		if got := Resolve(household("h", tt.spouses)); got != tt.want {
			t.Errorf("Resolve(%d spouses) = %+v, want %+v", tt.spouses, got, tt.want)
		}
	}
}

func TestResolveIgnoresStoredData(t *testing.T) {
	h := household("h", 1)
	h.Position = family.Point{X: 999, Y: -5}
	h.Primary.Name = "a much longer name than usual"
	if got := Resolve(h); got != (Size{400, 120}) {
		t.Errorf("Resolve = %+v", got)
	}
}

func TestAnchorOffset(t *testing.T) {
	fan := household("fan", 3) // 640 x 300
	couple := household("couple", 1)

	tests := []struct {
		name   string
		h      family.Household
		anchor family.Anchor
		dir    Direction
		want   float64
	}{
		{"unified primary", couple, family.AnchorPrimary, TB, 0},
		{"unified spouse", couple, family.SpouseAnchor(0), LR, 0},
		{"fan primary TB", fan, family.AnchorPrimary, TB, 0},
		{"fan first spouse TB", fan, family.SpouseAnchor(0), TB, -220},
		{"fan middle spouse TB", fan, family.SpouseAnchor(1), TB, 0},
		{"fan last spouse TB", fan, family.SpouseAnchor(2), TB, 220},
		{"fan spouse LR", fan, family.SpouseAnchor(2), LR, 90},
		{"fan primary LR", fan, family.AnchorPrimary, LR, -90},
		{"unknown spouse is primary", fan, family.SpouseAnchor(7), TB, 0},
		{"garbage is primary", fan, "left", LR, -90},
		{"empty is primary", fan, "", TB, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnchorOffset(tt.h, tt.anchor, tt.dir); got != tt.want {
				t.Errorf("AnchorOffset = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnchorSlot(t *testing.T) {
	h := household("h", 2)
	tests := []struct {
		anchor family.Anchor
		want   int
	}{
		{family.AnchorPrimary, 0},
		{"", 0},
		{family.SpouseAnchor(0), 1},
		{family.SpouseAnchor(1), 2},
		{family.SpouseAnchor(2), 0},
		{"spouse-x", 0},
	}
	for _, tt := range tests {
		if got := AnchorSlot(h, tt.anchor); got != tt.want {
			t.Errorf("AnchorSlot(%q) = %d, want %d", tt.anchor, got, tt.want)
		}
	}
}

func TestBounds(t *testing.T) {
	if got := Bounds(nil); got != (Rect{}) {
		t.Errorf("Bounds(nil) = %+v", got)
	}
	a := household("a", 0)
	a.Position = family.Point{X: 10, Y: 20}
	b := household("b", 2)
	b.Position = family.Point{X: 300, Y: 400}
	got := Bounds([]family.Household{a, b})
	want := Rect{X: 10, Y: 20, Width: 710, Height: 680}
	if got != want {
		t.Errorf("Bounds = %+v, want %+v", got, want)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"TB", TB, false},
		{"lr", LR, false},
		{" tb ", TB, false},
		{"", TB, false},
		{"BT", "", true},
		{"diagonal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDirection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
