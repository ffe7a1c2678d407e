// Package inventory loads a part inventory from BrickLink XML or CSV exports
// into an immutable multiset keyed by normalized part identity.
package inventory
