package noise

import (
	"math"
	"time"
)

// CCMethod selects the cross-spectrum definition.
type CCMethod string

const (
	// MethodXCorr is the plain cross-correlation conj(S)*R.
	MethodXCorr CCMethod = "xcorr"
	// MethodDeconv divides by the squared smoothed source amplitude.
	MethodDeconv CCMethod = "deconv"
	// MethodCoherency divides by both smoothed amplitudes.
	MethodCoherency CCMethod = "coherency"
)

// TimeNorm selects the time-domain normalization.
type TimeNorm string

const (
	TimeNormNone        TimeNorm = "none"
	TimeNormOneBit      TimeNorm = "one_bit"
	TimeNormRunningMean TimeNorm = "running_mean"
)

// FreqNorm selects the frequency-domain normalization.
type FreqNorm string

const (
	FreqNormNone   FreqNorm = "none"
	FreqNormWhiten FreqNorm = "whiten"
)

// Waveform is one gap-free, regularly sampled channel.
type Waveform struct {
	Samples    []float64
	SampleRate float64
	Start      time.Time
}

// Duration returns the time spanned by the samples.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / w.SampleRate * float64(time.Second))
}

// SegmentMatrix holds the processed segments of one channel. All rows
// share one length.
type SegmentMatrix struct {
	Rows [][]float64
	// AmpRatio is the peak absolute amplitude of each raw segment divided
	// by the standard deviation of the whole waveform.
	AmpRatio   []float64
	Starts     []time.Time
	SampleRate float64
}

// Len returns the number of segments.
func (m SegmentMatrix) Len() int { return len(m.Rows) }

// Empty reports whether m holds no segment.
func (m SegmentMatrix) Empty() bool { return len(m.Rows) == 0 }

// Select returns the segments at idx, sharing row storage with m.
func (m SegmentMatrix) Select(idx []int) SegmentMatrix {
	out := SegmentMatrix{
		Rows:       make([][]float64, len(idx)),
		AmpRatio:   make([]float64, len(idx)),
		Starts:     make([]time.Time, len(idx)),
		SampleRate: m.SampleRate,
	}
	for k, i := range idx {
		out.Rows[k] = m.Rows[i]
		out.AmpRatio[k] = m.AmpRatio[i]
		out.Starts[k] = m.Starts[i]
	}
	return out
}

// SpectrumMatrix holds one full-length spectrum per segment.
type SpectrumMatrix struct {
	Spectra [][]complex128
	NFFT    int
}

// Len returns the number of spectra.
func (m SpectrumMatrix) Len() int { return len(m.Spectra) }

// PairInfo describes the station pair behind a CCF. Geometry is supplied
// by the caller.
type PairInfo struct {
	Comp string  `yaml:"comp" json:"comp"`
	LatS float64 `yaml:"lat_s" json:"lat_s"`
	LonS float64 `yaml:"lon_s" json:"lon_s"`
	LatR float64 `yaml:"lat_r" json:"lat_r"`
	LonR float64 `yaml:"lon_r" json:"lon_r"`
	// Dist is the inter-station distance in km.
	Dist float64 `yaml:"dist" json:"dist"`
	Azi  float64 `yaml:"azi" json:"azi"`
	Baz  float64 `yaml:"baz" json:"baz"`
}

// CCF is a cross-correlation result: a single daily function or a matrix
// of sub-stacks. Row k covers lags Lags[0] ... Lags[len-1] and was built
// from NGood[k] segments starting at Times[k].
type CCF struct {
	Data     [][]float64
	Lags     []float64
	Dt       float64
	MaxLag   float64
	NGood    []int
	Times    []time.Time
	Pair     PairInfo
	Method   CCMethod
	Substack bool
}

// Empty reports whether no row survived.
func (c CCF) Empty() bool { return len(c.Data) == 0 }

// Count returns the number of segments behind all rows.
func (c CCF) Count() int {
	n := 0
	for _, g := range c.NGood {
		n += g
	}
	return n
}

// LagAxis returns the 2*floor(maxLag/dt)+1 lags k*dt, |k| <= floor(maxLag/dt).
func LagAxis(maxLag, dt float64) []float64 {
	nlag := lagCount(maxLag, dt)
	out := make([]float64, 2*nlag+1)
	for i := range out {
		out[i] = float64(i-nlag) * dt
	}
	return out
}

func lagCount(maxLag, dt float64) int {
	return int(math.Floor(maxLag/dt + 1e-9))
}
