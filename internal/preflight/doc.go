// Package preflight provides readiness checks for the filesystem paths and
// external services figfinder depends on.
//
// The CLI "figfinder check" command runs RunAll and renders each Result.
// Checks for optional features run only when the feature is configured.
package preflight
