package syncer

import (
	"math"
	"testing"

	"subweave/internal/subtitle"
)

func seqWithStarts(starts ...float64) subtitle.Sequence {
	events := make(subtitle.Sequence, 0, len(starts))
	for _, s := range starts {
		events = append(events, subtitle.NewEvent(s, s+2, "line"))
	}
	return events
}

func TestAssessClasses(t *testing.T) {
	tests := []struct {
		name string
		a, b subtitle.Sequence
		want Level
	}{
		{
			name: "identical tracks are excellent",
			a:    seqWithStarts(0, 5, 10, 15),
			b:    seqWithStarts(0, 5, 10, 15),
			want: LevelExcellent,
		},
		{
			name: "sub-second drift is good",
			a:    seqWithStarts(0, 5, 10, 15),
			b:    seqWithStarts(0.8, 5.8, 10.8, 15.8),
			want: LevelGood,
		},
		{
			name: "couple-second drift is moderate",
			a:    seqWithStarts(0, 5, 10, 15),
			b:    seqWithStarts(2.5, 7.5, 12.5, 17.5),
			want: LevelModerate,
		},
		{
			name: "large systematic offset is poor",
			a:    seqWithStarts(0, 5, 10, 15),
			b:    seqWithStarts(20, 25, 30, 35),
			want: LevelPoor,
		},
		{
			name: "no comparable events is poor",
			a:    nil,
			b:    seqWithStarts(0, 5),
			want: LevelPoor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.a, tt.b)
			if got.Level != tt.want {
				t.Errorf("Assess level = %s, want %s (core=%.2f max=%.2f)",
					got.Level, tt.want, got.CoreAverage, got.Max)
			}
		})
	}
}

func TestAssessCoreAverageTrimsStraggler(t *testing.T) {
	// Nine aligned events plus one straggler: the trimmed core average must
	// ignore the straggler while Max and Average still see it.
	a := seqWithStarts(0, 5, 10, 15, 20, 25, 30, 35, 40, 45)
	b := seqWithStarts(0.1, 5.1, 10.1, 15.1, 20.1, 25.1, 30.1, 35.1, 40.1, 49)

	got := Assess(a, b)
	if got.SampleCount != 10 {
		t.Fatalf("SampleCount = %d, want 10", got.SampleCount)
	}
	if math.Abs(got.CoreAverage-0.1) > 1e-9 {
		t.Errorf("CoreAverage = %.4f, want 0.1", got.CoreAverage)
	}
	if math.Abs(got.Max-4) > 1e-9 {
		t.Errorf("Max = %.4f, want 4", got.Max)
	}
	if got.Average <= got.CoreAverage {
		t.Errorf("Average %.4f should exceed trimmed core %.4f", got.Average, got.CoreAverage)
	}
	// Max still sees the straggler, so the class caps at good rather than
	// dropping to moderate or poor.
	if got.Level != LevelGood {
		t.Errorf("Level = %s, want good", got.Level)
	}
}

func TestAssessSamplesAtMostTen(t *testing.T) {
	var a, b subtitle.Sequence
	for i := 0; i < 30; i++ {
		a = append(a, subtitle.NewEvent(float64(i*5), float64(i*5)+2, "x"))
		b = append(b, subtitle.NewEvent(float64(i*5), float64(i*5)+2, "x"))
	}
	if got := Assess(a, b); got.SampleCount != assessSampleCount {
		t.Errorf("SampleCount = %d, want %d", got.SampleCount, assessSampleCount)
	}
}
