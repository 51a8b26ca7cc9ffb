package bayer

import "testing"

func TestPixelColor(t *testing.T) {
	cases := []struct {
		x, y float64
		want Color
	}{
		{0, 0, G2},
		{0, 1, R},
		{1, 0, B},
		{1, 1, G1},
		{2, 2, G2},
		{1, 2, B},
		{3, 2, B},
		{2, 3, R},
		{100, 51, R},
		{101, 50, B},
	}
	for _, c := range cases {
		if got := PixelColor(c.x, c.y); got != c.want {
			t.Errorf("PixelColor(%v, %v) = %s, want %s", c.x, c.y, got, c.want)
		}
	}
}

func TestPixelColorFractional(t *testing.T) {
	// Fractional positions must classify the same as their rounded
	// integer position.
	cases := []struct{ x, y, rx, ry float64 }{
		{0, 1.1, 0, 1},
		{1.9, 1, 2, 1},
		{2, 2.5, 2, 3},
		{1.5, 2, 2, 2},
		{0.4, 0.4, 0, 0},
	}
	for _, c := range cases {
		got := PixelColor(c.x, c.y)
		want := PixelColor(c.rx, c.ry)
		if got != want {
			t.Errorf("PixelColor(%v, %v) = %s, want %s (same as PixelColor(%v, %v))",
				c.x, c.y, got, want, c.rx, c.ry)
		}
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0.5, 1},
		{1.5, 2},
		{2.5, 3},
		{-0.5, -1},
		{-1.5, -2},
		{1.4, 1},
		{1.6, 2},
		{-1.4, -1},
		{2, 2},
	}
	for _, c := range cases {
		if got := roundHalfUp(c.in); got != c.want {
			t.Errorf("roundHalfUp(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestColorStrings(t *testing.T) {
	if R.String() != "R" || G1.String() != "G1" || G2.String() != "G2" || B.String() != "B" {
		t.Errorf("unexpected Color names: %s %s %s %s", R, G1, G2, B)
	}
	if Red.String() != "red" || Green.String() != "green" || Blue.String() != "blue" {
		t.Errorf("unexpected RGB names: %s %s %s", Red, Green, Blue)
	}
}
