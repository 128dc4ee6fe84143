// Package spectrum provides the frequency-domain building blocks of the
// noise-correlation chain.
//
// Transforms run on fixed power-of-two [Plan]s backed by algo-fft. On top of
// them the package offers amplitude smoothing ([MovingAverage], [Smooth]),
// phase helpers, the analytic signal used by phase-weighted stacking, and
// band-limited spectral whitening ([BandWhitener]).
package spectrum
