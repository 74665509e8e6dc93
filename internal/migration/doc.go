// Package migration rewrites stored records from older layouts to the
// current one.
//
// Layouts:
//
//	v0  dna[16]
//	v1  dna[16] label[4]
//	v2  dna[16] name[8]
//
// A single version marker covers every record. Migrate reads the marker,
// decodes every record under the old layout, and only then rewrites them
// all and advances the marker, so a target that applies the writes in one
// transaction never rests in a mixed state. Neither older layout carries a
// label worth keeping: both gain DefaultName.
package migration
