// Package interp provides one-dimensional resampling of sampled traces.
//
// [Linear] evaluates a piecewise-linear fit through (xp, fp) at arbitrary
// abscissae, holding the first and last sample constant outside the
// tabulated range. [Stretch] builds on it to evaluate a trace on a
// dilated time axis, the core operation of stretching-based velocity
// change estimation.
package interp
