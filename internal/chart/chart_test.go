package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/tracker"
)

func TestRender_PNG(t *testing.T) {
	goal := 3100
	samples := []tracker.Sample{
		{Label: "08:00", Value: 0},
		{Label: "09:15", Value: 250},
		{Label: "12:40", Value: 750},
	}

	img, err := New().Render(samples, "Прогресс воды за день", "мл", &goal)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		t.Errorf("empty image bounds %v", b)
	}
}

func TestRender_WithoutGoal(t *testing.T) {
	samples := []tracker.Sample{{Label: "08:00", Value: 0}, {Label: "18:00", Value: 300}}
	img, err := New().Render(samples, "Сожжённые калории за день", "ккал", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("missing PNG signature")
	}
}

func TestRender_NoSamples(t *testing.T) {
	if _, err := New().Render(nil, "x", "y", nil); err == nil {
		t.Error("expected an error for empty samples")
	}
}

func TestLabels_Thinned(t *testing.T) {
	samples := make([]tracker.Sample, 30)
	for i := range samples {
		samples[i].Label = "x"
	}
	shown := 0
	for _, l := range labels(samples) {
		if l != "" {
			shown++
		}
	}
	if shown > maxLabels+1 {
		t.Errorf("expected at most %d labels, got %d", maxLabels+1, shown)
	}
	if got := labels(samples); got[0] == "" || got[len(got)-1] == "" {
		t.Error("first and last labels must be kept")
	}
}
