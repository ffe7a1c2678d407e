// Package partkey canonicalizes (part id, color id) pairs into comparable keys.
//
// Every inventory line item and every assembly part entry passes through
// Normalize before it is stored or compared, so two spellings of the same part
// ("3626cpb1" and "3626CPB1") always land in the same bucket.
package partkey
