// Package matching compares an inventory multiset against assembly
// definitions.
//
// Every assembly is matched against the full inventory; parts are never
// reserved across assemblies, so the result answers "what could I build" per
// assembly rather than "what can I build at the same time".
package matching
