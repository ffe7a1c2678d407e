// Package cachestore persists assembly definitions and price records in
// per-namespace JSON files and mediates every expensive lookup through
// get-or-fetch semantics.
//
// Readers see an immutable snapshot and never block. Writers serialize through
// an in-process mutex and an exclusive file lock on <file>.lock, re-read the
// file under that lock, and replace it atomically via temp file and rename.
// A write either commits fully or leaves memory and disk untouched.
package cachestore
