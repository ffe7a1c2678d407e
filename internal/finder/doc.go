// Package finder runs an analysis: it resolves assembly definitions and price
// records through the cache store, falls back to the configured providers on
// a miss, and hands the results to the matching engine.
//
// A failed lookup for one assembly is recorded as an omission and never aborts
// the batch.
package finder
