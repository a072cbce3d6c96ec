// Package season resolves library season requests against the Shoko catalog
// and synthesizes season metadata records.
//
// A request names a library season index and carries the series provider ids
// the host already knows. Index 0 is the specials bucket and is answered
// without a catalog lookup. Every other index is mapped through the series'
// show aggregate to a catalog season and the offset from that season's base
// number. Failures never escape Resolve: they are logged and expressed as an
// empty Result.
package season
