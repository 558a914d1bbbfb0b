// Package match locates a template inside a larger image by frequency-domain
// cross-correlation.
//
// # Algorithm Overview
//
// Correlate removes the mean of both arrays, zero-pads the template to the
// image shape, and multiplies the image spectrum by the conjugate of the
// template spectrum. The inverse transform is the correlation surface, the same
// shape as the image, computed in O(N log N) instead of the O(N*M) of direct
// sliding-window correlation.
//
// Search takes the surface maximum (first occurrence in row-major order) as the
// template's top-left offset, crops the image there, and scores the crop
// against the template with cosine similarity.
//
// # Edge Cases
//
// The transform is circular, so the peak can sit where the template would
// overhang the image. The crop is then truncated to the image bounds, the
// score is computed over the shape both arrays share, and Match.Truncated is
// set so callers can tell.
//
// # Error Handling
//
// A template larger than the image in any dimension is a programming error and
// is reported as ErrSizeMismatch. Search never fails on a weak match; deciding
// what confidence is good enough belongs to the caller.
package match
