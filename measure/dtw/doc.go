// Package dtw implements dynamic time warping of one trace against another
// with a bounded lag range and a strain limit (Hale, 2013).
//
// The three stages are exposed separately so callers can reuse the error
// surface across strain limits:
//
//	errs, _ := dtw.ErrorFunction(cur, ref, maxLag, dtw.NormL2)
//	dist, _ := dtw.Accumulate(dtw.Forward, errs, b)
//	shifts, _ := dtw.Backtrack(dtw.Backward, dist, errs, -maxLag, b)
//
// Surfaces are indexed [sample][lag+maxLag].
package dtw
