// Package conv provides linear convolution and cross-correlation.
//
// Short kernels are convolved directly; longer ones go through a single
// zero-padded FFT. Correlation follows the same split and exposes the lag
// bookkeeping used by windowed time-delay estimation:
//
//	full, _ := conv.CorrelateFFT(cur, ref)   // index k <-> lag k-(len(ref)-1)
//	same, _ := conv.CorrelateMode(cur, ref, conv.ModeSame)
//	idx, _ := conv.FindPeak(same)
package conv
