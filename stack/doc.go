// Package stack combines many cross-correlation functions into long-term
// estimates.
//
// Every batch first passes the outlier rule ([Keep]): a row whose peak
// absolute amplitude is not positive or reaches 20 times the batch median
// peak is dropped. The survivors are optionally re-binned in time and then
// combined with one of the estimators below. Each estimator yields a
// distinct [Estimate] variant so callers can type-switch on the result.
//
//   - linear: arithmetic mean
//   - pws: phase-weighted stack (Schimmel and Paulssen, 1997)
//   - robust: iteratively reweighted stack (Pavlis and Vernon, 2010)
//   - nroot: n-th root stack
//   - acf: adaptive covariance filter (Nakata et al., 2015)
//   - selective: mean of rows that correlate with the running stack
//   - all: linear, pws and robust together
package stack
