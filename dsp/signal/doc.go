// Package signal provides trace conditioning (demean, detrend, z-score,
// peak normalization) and deterministic synthetic signal generation for
// exercising the correlation and velocity-change stages.
package signal
