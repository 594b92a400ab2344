package pixel

import (
	"image"
	"image/color"
	"testing"
)

func TestIsColorCloseSymmetric(t *testing.T) {
	colors := []Color{
		NewColor(0, 0, 0),
		NewColor(255, 255, 255),
		NewColor(120, 30, 200),
		NewColor(121, 50, 180),
		NewColor(10, 250, 5),
	}
	for _, tol := range []int{0, 1, 20, 40, 255} {
		for _, a := range colors {
			for _, b := range colors {
				if IsColorClose(a, b, tol) != IsColorClose(b, a, tol) {
					t.Fatalf("IsColorClose(%v, %v, %d) is not symmetric", a, b, tol)
				}
			}
		}
	}
}

func TestIsColorClose(t *testing.T) {
	tests := []struct {
		name string
		a, b Color
		tol  int
		want bool
	}{
		{"identical", NewColor(10, 20, 30), NewColor(10, 20, 30), 0, true},
		{"on the edge", NewColor(10, 20, 30), NewColor(30, 40, 50), 20, true},
		{"one channel over", NewColor(10, 20, 30), NewColor(31, 20, 30), 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsColorClose(tt.a, tt.b, tt.tol); got != tt.want {
				t.Errorf("IsColorClose() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorDistance(t *testing.T) {
	d := ColorDistance(NewColor(0, 0, 0), NewColor(3, 4, 0))
	if d != 5 {
		t.Errorf("ColorDistance = %v, want 5", d)
	}
}

func TestColorTargetEuclidean(t *testing.T) {
	target := ColorTarget{Color: NewColor(254, 254, 254), Tolerance: 10, Rule: RuleEuclidean}
	if !target.Matches(NewColor(250, 250, 250)) {
		t.Error("expected near-white to match")
	}
	if target.Matches(NewColor(240, 240, 240)) {
		t.Error("expected grey to fall outside tolerance")
	}
}

func TestMatchAnyPriority(t *testing.T) {
	targets := []ColorTarget{
		NewColorTarget(NewColor(100, 0, 100), 25),
		NewColorTarget(NewColor(100, 10, 100), 25),
	}
	if got := MatchAny(targets, NewColor(105, 5, 95)); got != 0 {
		t.Errorf("MatchAny = %d, want first target", got)
	}
	if got := MatchAny(targets, NewColor(0, 200, 0)); got != -1 {
		t.Errorf("MatchAny = %d, want -1", got)
	}
}

func TestAverageColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
		img.Set(x, 1, color.RGBA{B: 100, A: 255})
	}

	c, ok := AverageColor(img, NewRegion(0, 0, 4, 2))
	if !ok {
		t.Fatal("expected a sample")
	}
	if c != NewColor(100, 0, 50) {
		t.Errorf("AverageColor = %v, want rgb(100,0,50)", c)
	}

	// degenerate rect is widened to one pixel
	c, ok = AverageColor(img, NewRegion(1, 1, 1, 1))
	if !ok || c != NewColor(0, 0, 100) {
		t.Errorf("degenerate AverageColor = %v, %v", c, ok)
	}

	if _, ok := AverageColor(img, NewRegion(10, 10, 20, 20)); ok {
		t.Error("expected no sample outside the frame")
	}
}

func TestRGBRangeContains(t *testing.T) {
	r := RGBRange{Min: NewColor(10, 10, 10), Max: NewColor(20, 20, 20)}
	if !r.Contains(NewColor(10, 20, 15)) {
		t.Error("expected inclusive bounds")
	}
	if r.Contains(NewColor(9, 15, 15)) {
		t.Error("expected value below min to be outside")
	}
}

func TestNumberExtraction(t *testing.T) {
	tests := []struct {
		in     string
		joined int
		first  int
		ok     bool
	}{
		{"1 234 S67", 1234567, 1, true},
		{"x l/5", 15, 1, true},
		{"OB", 8, 8, true},
		{"---", 0, 0, false},
	}
	for _, tt := range tests {
		j, ok := JoinedNumber(tt.in)
		if ok != tt.ok || j != tt.joined {
			t.Errorf("JoinedNumber(%q) = %d, %v, want %d, %v", tt.in, j, ok, tt.joined, tt.ok)
		}
		f, _ := FirstNumber(tt.in)
		if f != tt.first {
			t.Errorf("FirstNumber(%q) = %d, want %d", tt.in, f, tt.first)
		}
	}
}
