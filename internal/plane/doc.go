// Package plane separates captured images into a single comparable 2-D array
// using a fixed 2x2 colour-filter-array (mosaic) rule.
//
// Every position (r, c) of an image is assigned one of three channels:
//   - channel 2 (blue) when both r and c are even
//   - channel 1 (green) when exactly one of r, c is even
//   - channel 0 (red) otherwise
//
// Separating an image keeps, at each position, only the sample of its assigned
// channel. Images from heterogeneous sources (colour screenshots, grayscale
// stills) therefore reduce to the same array shape, which is what the template
// matcher compares.
//
// # Caching
//
// The channel map depends only on the image shape. Cache stores one Filter per
// shape seen and derives smaller shapes by slicing the largest filter computed
// so far. The cache is safe for concurrent use; NewCache accepts an optional
// bound on the number of stored shapes and Clear drops everything.
package plane
