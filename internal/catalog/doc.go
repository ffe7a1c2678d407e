// Package catalog models assembly definitions (minifigures and their part
// lists) and market price records as they are stored in the cache.
//
// The JSON layout matches the cache files written by earlier tooling:
// assemblies are stored as {"item_data": ..., "parts": [...]} and price
// records as {"data": {...}, "updated": "..."}, so existing caches load
// without conversion.
package catalog
