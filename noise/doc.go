// Package noise turns continuous ambient-noise recordings into
// cross-correlation functions.
//
// The chain has three stages, each a validated, stateless component:
//
//	Segmenter   waveform -> overlapping, demeaned, detrended, tapered rows
//	Normalizer  rows -> spectra, after optional one-bit or running-mean
//	            normalization and optional band whitening
//	Correlator  source and receiver spectra -> CCF, averaged per day or
//	            kept as sub-stacks, trimmed to |lag| <= MaxLag
//
// [Pipeline] chains the three for one station pair. Every component takes
// core.WithLogger; soft failures such as a too-short waveform or a batch
// without outlier survivors are reported as warnings and yield empty
// results rather than errors.
package noise
