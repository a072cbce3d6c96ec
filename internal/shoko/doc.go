// Package shoko provides the minimal Shoko Server API v3 client used to build
// show aggregates for season resolution.
//
// It authenticates requests with the apikey header and exposes series, tag,
// cast and group lookups. ShowInfoForSeries composes those calls into a
// catalog.ShowInfo. Missing resources are reported with services.ErrNotFound
// so the resolver can tell lookup failures from transport faults. Options
// allow tests to supply custom HTTP clients.
package shoko
