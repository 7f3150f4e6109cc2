// Package domain models property-listing enrichment data.
//
// # Data Source
//
// Listings arrive as a MITS-style XML feed. Each <Property> element carries an
// identification block (ID, marketing name, email), an address block (city plus
// a free-text UnparsedAddress), and ILS_Unit sub-records with per-unit bedroom
// counts. The ingestion driver consumes the feed, keeps one record per property
// ID, and targets a single configured city.
//
// # Address Normalization
//
// Geocoding queries use a normalized form of the unparsed address: letters and
// digits are kept, runs of whitespace collapse to a single '+' separator, and
// everything else is dropped.
//
//	"123 Main St, Madison WI"  →  "123+Main+St+Madison+WI"
//
// See [NormalizeAddress].
//
// # Forecast Provider Conventions
//
// The forecast provider follows the NWS two-hop contract: a points lookup for a
// coordinate pair returns a resource description whose "forecast" property is
// the endpoint URL for that grid, and fetching that endpoint returns a document
// with an ordered sequence of forecast periods. The head of the sequence is the
// next forecast period; its temperature, unit, and short description become the
// stored summary, and its detailed description becomes the stored detail text.
// A well-formed document with an empty period sequence violates the provider
// contract and fails enrichment for that record. See [NextPeriod].
//
// Geocoding responses carry latitude and longitude as decimal strings, which
// are threaded through unparsed — the forecast provider accepts them verbatim
// in the points path.
//
// # Run Statistics
//
// Every ingestion pass owns a RunStatistics record keyed by a generated run ID.
// Counters and duration accumulators are only ever mutated through per-field
// atomic operations (increment-with-default, append-with-default) so that
// concurrently completing enrichment jobs never lose updates. The derived
// average fields are recomputed from a point-in-time read and are intentionally
// not atomic with respect to the counters they divide; an average written while
// other jobs are still contributing may lag the totals. Durations are stored as
// integer nanoseconds, so sums over concurrent contributions are exact.
package domain
