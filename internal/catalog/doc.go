// Package catalog models the read-only anime catalog records consumed by the
// season resolver: per-series season records and the show aggregate that
// numbers them as library seasons.
package catalog
