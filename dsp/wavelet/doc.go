// Package wavelet implements the continuous wavelet transform with a Morlet
// mother wavelet, its inverse, the scale-time smoothing operator of
// Torrence and Webster (1998), and the wavelet coherence of two traces.
//
// Scales follow the usual dyadic layout s_j = s0 * 2^(j*dj), j = 0..J.
// Coefficient matrices are indexed [scale][time].
package wavelet
