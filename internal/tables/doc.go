// Package tables contains lookup tables and small integer helpers shared by
// the Vorbis setup parser and the spectral decoder.
//
// This includes the floor 1 inverse-dB table, the floor 1 quantizer ranges
// and the Bark scale used by floor 0.
package tables
