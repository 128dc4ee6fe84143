// Package dvv estimates relative seismic velocity changes (dv/v) from a
// reference and a current cross-correlation function.
//
// All estimators share one sign convention: a current trace equal to the
// reference evaluated at t*(1+a) yields dv/v = 100*a percent, so a
// velocity drop, which delays late arrivals, gives a negative value.
//
//	stretching  trial stretch factors with a refined grid
//	dtw         dynamic time warping shifts regressed against lapse time
//	mwcs        moving-window cross-spectrum phase slopes
//	wcc         moving-window cross-correlation lags
//	wxs         wavelet cross-spectrum phase
//	wts         stretching of wavelet band reconstructions
//	wtdtw       dynamic time warping of wavelet bands
//
// The three wavelet estimators report either one value for the whole band
// or one value per wavelet frequency (Config.AllFrequencies). A regression
// with two or fewer usable points yields 0 (NaN per frequency) and a
// warning instead of an error.
package dvv
