package noise

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-noise/dsp/conv"
	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/internal/testutil"
	"github.com/cwbudde/algo-noise/stack"
	"github.com/cwbudde/algo-noise/stats/descriptive"
)

const delaySamples = 15

// delayedPair returns a source and a receiver that records the same noise
// delaySamples later, at 10 Hz over a 15 minute window.
func delayedPair() (Waveform, Waveform) {
	early, late := testutil.DelayedNoise(42, 1, 9000, delaySamples)
	return Waveform{Samples: early, SampleRate: 10, Start: day}, Waveform{Samples: late, SampleRate: 10, Start: day}
}

func baseCorrelate() CorrelateConfig {
	return CorrelateConfig{Dt: 0.1, MaxLag: 5, Method: MethodXCorr, SegmentLength: 100, SmoothHalfWidth: 10}
}

// spectra runs the delayed pair through segmentation and normalization.
func spectra(t *testing.T, method CCMethod) ([][]complex128, SpectrumMatrix, []time.Time) {
	t.Helper()
	src, rcv := delayedPair()
	seg, err := NewSegmenter(testSegments)
	if err != nil {
		t.Fatalf("NewSegmenter: %v", err)
	}
	norm, err := NewNormalizer(NormalizeConfig{SampleRate: 10, TimeNorm: TimeNormNone, FreqNorm: FreqNormNone})
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	segS, err := seg.Segment(src)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	segR, err := seg.Segment(rcv)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	specS, err := norm.Normalize(segS)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	specR, err := norm.Normalize(segR)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	sfft, err := SmoothSourceSpectrum(specS, method, 10)
	if err != nil {
		t.Fatalf("SmoothSourceSpectrum: %v", err)
	}
	return sfft, specR, segS.Starts
}

func mustCorrelator(t *testing.T, cfg CorrelateConfig) *Correlator {
	t.Helper()
	c, err := NewCorrelator(cfg)
	if err != nil {
		t.Fatalf("NewCorrelator: %v", err)
	}
	return c
}

func requirePeakAtDelay(t *testing.T, row []float64, lags []float64) {
	t.Helper()
	idx, _ := conv.FindPeak(row)
	if idx != 50+delaySamples {
		t.Fatalf("peak at index %d (lag %v), want %d", idx, lags[idx], 50+delaySamples)
	}
	if math.Abs(lags[idx]-1.5) > 1e-9 {
		t.Fatalf("peak lag %v, want 1.5", lags[idx])
	}
}

func TestCorrelateDailyPeakLag(t *testing.T) {
	for _, method := range []CCMethod{MethodXCorr, MethodDeconv, MethodCoherency} {
		t.Run(string(method), func(t *testing.T) {
			src, rcv, times := spectra(t, method)
			cfg := baseCorrelate()
			cfg.Method = method
			ccf, err := mustCorrelator(t, cfg).Correlate(src, rcv, times)
			if err != nil {
				t.Fatalf("Correlate: %v", err)
			}
			if len(ccf.Data) != 1 || len(ccf.Data[0]) != 101 || len(ccf.Lags) != 101 {
				t.Fatalf("shape %d rows, lag axis %d", len(ccf.Data), len(ccf.Lags))
			}
			if ccf.NGood[0] != 16 || !ccf.Times[0].Equal(day) {
				t.Fatalf("NGood %v Times %v", ccf.NGood, ccf.Times)
			}
			if ccf.Method != method || ccf.Substack || ccf.Dt != 0.1 || ccf.MaxLag != 5 {
				t.Fatalf("metadata %+v", ccf)
			}
			requirePeakAtDelay(t, ccf.Data[0], ccf.Lags)
		})
	}
}

func TestCorrelateSubstackPerSegment(t *testing.T) {
	src, rcv, times := spectra(t, MethodXCorr)
	cfg := baseCorrelate()
	cfg.Substack = true
	cfg.SubstackLength = 100
	ccf, err := mustCorrelator(t, cfg).Correlate(src, rcv, times)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if len(ccf.Data) != 16 || !ccf.Substack {
		t.Fatalf("got %d rows", len(ccf.Data))
	}
	for i, row := range ccf.Data {
		if ccf.NGood[i] != 1 || !ccf.Times[i].Equal(times[i]) {
			t.Fatalf("row %d: NGood %d time %v", i, ccf.NGood[i], ccf.Times[i])
		}
		requirePeakAtDelay(t, row, ccf.Lags)
	}
	if ccf.Count() != 16 {
		t.Fatalf("Count = %d", ccf.Count())
	}
}

func TestCorrelateSubstackBinned(t *testing.T) {
	src, rcv, times := spectra(t, MethodXCorr)
	cfg := baseCorrelate()
	cfg.Substack = true
	cfg.SubstackLength = 200
	ccf, err := mustCorrelator(t, cfg).Correlate(src, rcv, times)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	// Segments start every 50 s from 0 to 750 s: four 200 s bins of four.
	if len(ccf.Data) != 4 {
		t.Fatalf("got %d bins, want 4", len(ccf.Data))
	}
	for k, row := range ccf.Data {
		if ccf.NGood[k] != 4 {
			t.Fatalf("bin %d NGood %d", k, ccf.NGood[k])
		}
		if want := day.Add(time.Duration(k) * 200 * time.Second); !ccf.Times[k].Equal(want) {
			t.Fatalf("bin %d time %v, want %v", k, ccf.Times[k], want)
		}
		requirePeakAtDelay(t, row, ccf.Lags)
	}
}

func TestCorrelateSubstackSkipsEmptyBins(t *testing.T) {
	src, rcv, times := spectra(t, MethodXCorr)
	// Keep the first four and the last four segments only.
	idx := []int{0, 1, 2, 3, 12, 13, 14, 15}
	pickC := func(x [][]complex128) [][]complex128 {
		out := make([][]complex128, len(idx))
		for k, i := range idx {
			out[k] = x[i]
		}
		return out
	}
	pickedTimes := make([]time.Time, len(idx))
	for k, i := range idx {
		pickedTimes[k] = times[i]
	}
	cfg := baseCorrelate()
	cfg.Substack = true
	cfg.SubstackLength = 200
	ccf, err := mustCorrelator(t, cfg).Correlate(pickC(src), SpectrumMatrix{Spectra: pickC(rcv.Spectra), NFFT: rcv.NFFT}, pickedTimes)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if len(ccf.Data) != 2 {
		t.Fatalf("got %d bins, want 2", len(ccf.Data))
	}
	if want := day.Add(600 * time.Second); !ccf.Times[1].Equal(want) {
		t.Fatalf("second bin at %v, want %v", ccf.Times[1], want)
	}
}

func TestCorrelateNonlinear(t *testing.T) {
	src, rcv, times := spectra(t, MethodXCorr)
	for _, method := range []stack.Method{stack.MethodLinear, stack.MethodRobust} {
		t.Run(string(method), func(t *testing.T) {
			cfg := baseCorrelate()
			cfg.StackMethod = method
			ccf, normalized, err := mustCorrelator(t, cfg).CorrelateNonlinear(src, rcv, times)
			if err != nil {
				t.Fatalf("CorrelateNonlinear: %v", err)
			}
			if len(normalized) != 16 {
				t.Fatalf("companion has %d rows", len(normalized))
			}
			for i, row := range normalized {
				if len(row) != 101 {
					t.Fatalf("companion row %d has %d samples", i, len(row))
				}
				if peak := descriptive.MaxAbs(row); peak > 1+1e-12 || peak < 0.5 {
					t.Fatalf("companion row %d peak %v", i, peak)
				}
			}
			if len(ccf.Data) != 1 || ccf.NGood[0] != 16 {
				t.Fatalf("rows %d NGood %v", len(ccf.Data), ccf.NGood)
			}
			requirePeakAtDelay(t, ccf.Data[0], ccf.Lags)
		})
	}
}

func TestCorrelateNonlinearMatchesLinearDaily(t *testing.T) {
	src, rcv, times := spectra(t, MethodXCorr)
	c := mustCorrelator(t, baseCorrelate())
	daily, err := c.Correlate(src, rcv, times)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	nl, _, err := c.CorrelateNonlinear(src, rcv, times)
	if err != nil {
		t.Fatalf("CorrelateNonlinear: %v", err)
	}
	// Averaging before or after the inverse transform is the same when no
	// segment is rejected.
	testutil.RequireSliceNearlyEqual(t, nl.Data[0], daily.Data[0], 1e-9*descriptive.MaxAbs(daily.Data[0]))
}

func TestCorrelateNoSurvivors(t *testing.T) {
	zero := [][]complex128{make([]complex128, 32), make([]complex128, 32)}
	rcv := SpectrumMatrix{Spectra: [][]complex128{make([]complex128, 64), make([]complex128, 64)}, NFFT: 64}
	times := []time.Time{day, day.Add(time.Minute)}
	c := mustCorrelator(t, CorrelateConfig{Dt: 0.1, MaxLag: 1, Method: MethodXCorr, SegmentLength: 6})
	ccf, err := c.Correlate(zero, rcv, times)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if !ccf.Empty() || ccf.Count() != 0 || len(ccf.Lags) != 21 {
		t.Fatalf("expected empty CCF, got %+v", ccf)
	}
}

func TestCorrelateErrors(t *testing.T) {
	src := [][]complex128{make([]complex128, 32)}
	rcv := SpectrumMatrix{Spectra: [][]complex128{make([]complex128, 64)}, NFFT: 64}
	times := []time.Time{day}

	c := mustCorrelator(t, CorrelateConfig{Dt: 0.1, MaxLag: 5, Method: MethodXCorr, SegmentLength: 6})
	if _, err := c.Correlate(src, rcv, times); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("maxlag beyond the transform: expected ErrConfiguration, got %v", err)
	}

	c = mustCorrelator(t, CorrelateConfig{Dt: 0.1, MaxLag: 1, Method: MethodXCorr, SegmentLength: 6})
	if _, err := c.Correlate(src, rcv, nil); err == nil {
		t.Fatal("expected error for missing times")
	}
	if _, err := c.Correlate(nil, SpectrumMatrix{NFFT: 64}, nil); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	coh := mustCorrelator(t, CorrelateConfig{Dt: 0.1, MaxLag: 1, Method: MethodCoherency, SegmentLength: 6})
	if _, err := coh.Correlate(src, rcv, times); !errors.Is(err, core.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestNewCorrelatorValidation(t *testing.T) {
	cases := map[string]CorrelateConfig{
		"method":       {Dt: 0.1, MaxLag: 1, Method: "pcc", SegmentLength: 6},
		"dt":           {Dt: 0, MaxLag: 1, Method: MethodXCorr, SegmentLength: 6},
		"substack len": {Dt: 0.1, MaxLag: 1, Method: MethodXCorr, SegmentLength: 6, Substack: true},
		"stack method": {Dt: 0.1, MaxLag: 1, Method: MethodXCorr, SegmentLength: 6, StackMethod: stack.MethodPWS},
	}
	for name, cfg := range cases {
		if _, err := NewCorrelator(cfg); !errors.Is(err, core.ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", name, err)
		}
	}
}

func TestLagAxis(t *testing.T) {
	for _, tc := range []struct {
		maxLag, dt float64
		n          int
	}{
		{5, 0.1, 101},
		{5.05, 0.1, 101},
		{200, 0.05, 8001},
		{0.04, 0.05, 1},
	} {
		lags := LagAxis(tc.maxLag, tc.dt)
		if len(lags) != tc.n {
			t.Fatalf("LagAxis(%v, %v) has %d lags, want %d", tc.maxLag, tc.dt, len(lags), tc.n)
		}
		mid := len(lags) / 2
		if lags[mid] != 0 || lags[0] != -lags[len(lags)-1] || math.Abs(lags[0]) > tc.maxLag+1e-9 {
			t.Fatalf("LagAxis(%v, %v) not symmetric: %v ... %v", tc.maxLag, tc.dt, lags[0], lags[len(lags)-1])
		}
	}
}
