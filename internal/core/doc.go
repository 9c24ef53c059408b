// Package core resolves sheet references and turns spreadsheet rows into
// column-oriented JSON, with an edge cache in front of the data provider.
//
// This package contains all domain logic independent of any transport. It
// is used by the HTTP server, the sheetctl CLI, and tests.
//
// # Pipeline
//
// A request flows through these stages:
//
//  1. [CachePolicy.Plan] derives the cache key and freshness from the
//     request URL and the caller's [TrustTier].
//  2. [Service.Serve] consults the [CacheStore]; a fresh hit is returned
//     with Cache-Status: HIT and the provider is not called.
//  3. [Resolve] maps the document id / sheet token / shared URL to a
//     [ResolvedSheet]. Only numeric tokens cost a metadata round-trip.
//  4. The [Provider] returns the sheet's [RawTable].
//  5. [SelectWindow] picks the inclusive row range from rowLimit/rowOffset.
//  6. [ProjectColumns] folds the kept rows into a [Projection].
//  7. [Success] or [Failure] assembles the JSON envelope and headers.
//  8. After the response is written, [Service.StoreAsync] populates the cache
//     in the background.
//
// # Row Windows
//
// A zero limit keeps every row. A positive limit keeps the first N rows after
// skipping offset rows. A negative limit keeps the trailing |N| rows after
// dropping |offset| rows from the end:
//
//	SelectWindow(10, 3, 2)   // rows 2..4
//	SelectWindow(10, -2, 0)  // rows 8..9
//	SelectWindow(10, -2, -3) // rows 5..6
//
// # Error Handling
//
// Errors are [*Error] values whose [Kind] determines the HTTP status via
// [MapError]. Messages are returned to the caller verbatim; codes are for logs.
package core
