package chart

import "testing"

func TestDestName(t *testing.T) {
	cases := []struct {
		src, format, want string
	}{
		{"sweater.jpeg", "png", "sweater-chart.png"},
		{"cat.photo.png", "tiff", "cat.photo-chart.tiff"},
		{"noext", "png", "noext-chart.png"},
		{"mitten.webp", "pal", "mitten-chart.pal"},
	}
	for _, tc := range cases {
		if got := DestName(tc.src, tc.format); got != tc.want {
			t.Errorf("DestName(%q, %q) = %q, want %q", tc.src, tc.format, got, tc.want)
		}
	}
}
