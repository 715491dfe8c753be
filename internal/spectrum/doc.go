// Package spectrum rebuilds the spectrum of a Vorbis audio block.
//
// Each channel's floor (the spectral envelope) is decoded first, then the
// residue (the fine structure) of every submap, then the inverse channel
// coupling. Finally the floor curve multiplies the residue. The caller runs
// the inverse MDCT on the result.
//
// This includes the setup-header parsers for floors, residues, mappings and
// modes, since their precomputed tables depend only on header fields.
package spectrum
