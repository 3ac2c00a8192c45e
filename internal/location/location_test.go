package location

import "testing"

func TestFormatCoords(t *testing.T) {
	t.Parallel()

	if got := FormatCoords(nil); got != "Unknown" {
		t.Fatalf("nil fix: want Unknown, got %q", got)
	}

	got := FormatCoords(&Coordinates{Latitude: 26.84671899, Longitude: 80.94616101})
	if got != "26.8467, 80.9462" {
		t.Fatalf("want four decimal places, got %q", got)
	}

	got = FormatCoords(&Coordinates{Latitude: -12.5, Longitude: 0})
	if got != "-12.5000, 0.0000" {
		t.Fatalf("want padded decimals, got %q", got)
	}
}

func TestNormalizeAreaCode(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"  rampur ", "RAMPUR"},
		{"block-12", "BLOCK-12"},
		{"", ""},
		{"rampur-block-seven-extended", "RAMPUR-BLOCK-SEVEN-E"},
	}
	for _, tc := range cases {
		if got := NormalizeAreaCode(tc.in); got != tc.want {
			t.Errorf("%q: want %q, got %q", tc.in, tc.want, got)
		}
	}
}
