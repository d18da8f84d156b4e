// Package imgproc holds the raster primitives shared by boundary detection and
// document enhancement. Every function returns a new raster anchored at the
// origin and leaves its input untouched; results are deterministic for a given
// input so callers can compare outputs bit for bit.
package imgproc
