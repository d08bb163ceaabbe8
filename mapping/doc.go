// Package mapping holds the name-mapping tables that drive renaming.
//
// A Table is an owner-aware class, field, method and package mapping as
// read from a TSRG file; Reverse swaps its direction. A Flat table is an
// owner-independent key to value substitution that always takes
// precedence over the Table.
//
// Tables are built once and are read-only afterwards, so they can be
// shared across goroutines without locking.
package mapping
