package dvv

// Measurement is a dv/v estimate and its standard error, both in percent.
type Measurement struct {
	DvV float64 `json:"dvv"`
	Err float64 `json:"err"`
}

// StretchResult adds the correlation scores of a stretching estimate.
type StretchResult struct {
	Measurement
	// CC is the correlation of the reference with the best stretched
	// current trace, CDP the correlation before stretching.
	CC  float64 `json:"cc"`
	CDP float64 `json:"cdp"`
}

// FrequencyMeasurement holds one estimate per wavelet frequency.
type FrequencyMeasurement struct {
	Freqs []float64 `json:"freqs"`
	DvV   []float64 `json:"dvv"`
	Err   []float64 `json:"err"`
}

// Len returns the number of frequencies.
func (f FrequencyMeasurement) Len() int { return len(f.Freqs) }

// Delay is the time shift measured in one moving window.
type Delay struct {
	Time      float64 `json:"time"`  // window center, s
	Shift     float64 `json:"shift"` // s
	Err       float64 `json:"err"`
	Coherence float64 `json:"coherence"`
}

// Result is the outcome of Measure. PerFrequency is set by the wavelet
// estimators in all-frequency mode, in which case Measurement is zero.
type Result struct {
	Method Method `json:"method"`
	Measurement
	CC           float64               `json:"cc,omitempty"`
	CDP          float64               `json:"cdp,omitempty"`
	PerFrequency *FrequencyMeasurement `json:"per_frequency,omitempty"`
}
