package noise

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/internal/testutil"
	"github.com/cwbudde/algo-noise/stats/descriptive"
)

var day = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

// A 15 minute window at 10 Hz: 16 segments of 100 s every 50 s.
var testSegments = SegmentConfig{WindowHours: 0.25, SegmentLength: 100, Step: 50}

func TestSegmentConfigSegments(t *testing.T) {
	if got := testSegments.Segments(); got != 16 {
		t.Fatalf("Segments() = %d, want 16", got)
	}
	day1 := SegmentConfig{WindowHours: 24, SegmentLength: 1800, Step: 450}
	if got := day1.Segments(); got != 188 {
		t.Fatalf("Segments() = %d, want 188", got)
	}
}

func TestSegmenterSegment(t *testing.T) {
	s, err := NewSegmenter(testSegments)
	if err != nil {
		t.Fatalf("NewSegmenter: %v", err)
	}
	samples := testutil.DeterministicNoise(1, 1, 9000)
	m, err := s.Segment(Waveform{Samples: samples, SampleRate: 10, Start: day})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if m.Len() != 16 || m.SampleRate != 10 {
		t.Fatalf("got %d segments at %g Hz", m.Len(), m.SampleRate)
	}

	std := descriptive.PopStd(samples)
	for i, row := range m.Rows {
		if len(row) != 1000 {
			t.Fatalf("row %d has %d samples", i, len(row))
		}
		want := descriptive.MaxAbs(samples[i*500:i*500+1000]) / std
		if math.Abs(m.AmpRatio[i]-want) > 1e-12 {
			t.Fatalf("AmpRatio[%d] = %v, want %v", i, m.AmpRatio[i], want)
		}
		if row[0] != 0 || math.Abs(row[len(row)-1]) > 1e-3 {
			t.Fatalf("row %d not tapered: %v ... %v", i, row[0], row[len(row)-1])
		}
	}
	if want := day.Add(150 * time.Second); !m.Starts[3].Equal(want) {
		t.Fatalf("Starts[3] = %v, want %v", m.Starts[3], want)
	}

	// Rows are copies.
	m.Rows[0][100] = 1e6
	if samples[100] == 1e6 {
		t.Fatal("segment aliases the waveform")
	}
}

func TestSegmenterShortWaveform(t *testing.T) {
	s, _ := NewSegmenter(testSegments)
	m, err := s.Segment(Waveform{Samples: testutil.DeterministicNoise(1, 1, 8999), SampleRate: 10, Start: day})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if !m.Empty() {
		t.Fatalf("expected empty matrix, got %d rows", m.Len())
	}
}

func TestSegmenterFlatWaveform(t *testing.T) {
	s, _ := NewSegmenter(testSegments)
	flat := make([]float64, 9000)
	for i := range flat {
		flat[i] = 3
	}
	m, err := s.Segment(Waveform{Samples: flat, SampleRate: 10, Start: day})
	if !errors.Is(err, core.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
	if !m.Empty() {
		t.Fatal("expected empty matrix")
	}

	flat[10] = math.NaN()
	if _, err := s.Segment(Waveform{Samples: flat, SampleRate: 10, Start: day}); !errors.Is(err, core.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput for NaN, got %v", err)
	}
}

func TestNewSegmenterValidation(t *testing.T) {
	cases := []SegmentConfig{
		{WindowHours: 0, SegmentLength: 100, Step: 50},
		{WindowHours: 1, SegmentLength: 0, Step: 50},
		{WindowHours: 1, SegmentLength: 100, Step: -1},
		{WindowHours: 0.01, SegmentLength: 100, Step: 50},
	}
	for _, cfg := range cases {
		if _, err := NewSegmenter(cfg); !errors.Is(err, core.ErrConfiguration) {
			t.Errorf("%+v: expected ErrConfiguration, got %v", cfg, err)
		}
	}
}

func TestSegmentMatrixSelect(t *testing.T) {
	m := SegmentMatrix{
		Rows:       [][]float64{{1}, {2}, {3}},
		AmpRatio:   []float64{0.1, 0.2, 0.3},
		Starts:     []time.Time{day, day.Add(time.Second), day.Add(2 * time.Second)},
		SampleRate: 5,
	}
	got := m.Select([]int{0, 2})
	if got.Len() != 2 || got.Rows[1][0] != 3 || got.AmpRatio[1] != 0.3 || !got.Starts[1].Equal(day.Add(2*time.Second)) {
		t.Fatalf("Select = %+v", got)
	}
}

func TestWaveformDuration(t *testing.T) {
	w := Waveform{Samples: make([]float64, 250), SampleRate: 100}
	if got := w.Duration(); got != 2500*time.Millisecond {
		t.Fatalf("Duration = %v", got)
	}
	if (Waveform{}).Duration() != 0 {
		t.Fatal("zero waveform must have zero duration")
	}
}
