package spectrum

import (
	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/tables"
	"github.com/pkg/errors"
)

// Submap pairs a floor with a residue.
type Submap struct {
	Floor   Floor
	Residue *Residue
}

// Mapping describes how the channels of a block are coded.
type Mapping struct {
	Submaps  []Submap
	Mux      []int // submap of each channel
	Coupling []CouplingStep
}

// ReadMapping parses one mapping configuration.
func ReadMapping(r *bits.Reader, channels int, floors []Floor, residues []*Residue) (*Mapping, error) {
	if t := r.ReadInt(16); t != 0 {
		return nil, errors.Wrapf(ErrBadMapping, "spectrum: mapping type %d", t)
	}
	m := &Mapping{Mux: make([]int, channels)}

	submaps := 1
	if r.ReadBit() {
		submaps = r.ReadInt(4) + 1
	}

	if r.ReadBit() {
		steps := r.ReadInt(8) + 1
		chBits := tables.ILog(channels - 1)
		m.Coupling = make([]CouplingStep, steps)
		for i := range m.Coupling {
			mag, ang := r.ReadInt(chBits), r.ReadInt(chBits)
			if mag == ang || mag >= channels || ang >= channels {
				return nil, errors.Wrapf(ErrBadMapping, "spectrum: coupling step %d couples %d with %d", i, mag, ang)
			}
			m.Coupling[i] = CouplingStep{Magnitude: mag, Angle: ang}
		}
	}

	if r.ReadInt(2) != 0 {
		return nil, errors.Wrap(ErrBadMapping, "spectrum: reserved mapping bits set")
	}

	if submaps > 1 {
		for i := range m.Mux {
			m.Mux[i] = r.ReadInt(4)
			if m.Mux[i] >= submaps {
				return nil, errors.Wrapf(ErrBadMapping, "spectrum: channel %d uses submap %d of %d", i, m.Mux[i], submaps)
			}
		}
	}

	m.Submaps = make([]Submap, submaps)
	for i := range m.Submaps {
		r.ReadInt(8) // time configuration, unused
		fi, ri := r.ReadInt(8), r.ReadInt(8)
		if fi >= len(floors) {
			return nil, errors.Wrapf(ErrBadMapping, "spectrum: submap %d uses floor %d of %d", i, fi, len(floors))
		}
		if ri >= len(residues) {
			return nil, errors.Wrapf(ErrBadMapping, "spectrum: submap %d uses residue %d of %d", i, ri, len(residues))
		}
		m.Submaps[i] = Submap{Floor: floors[fi], Residue: residues[ri]}
	}
	if r.IsShort() {
		return nil, errors.Wrap(ErrBadMapping, "spectrum: mapping header truncated")
	}
	return m, nil
}

// Decode rebuilds the spectrum of every channel of a block of size n into
// the first n/2 values of blk.PCM. Decoding failures are recorded in blk
// and never abort the block.
func (m *Mapping) Decode(r *bits.Reader, blk *Block, n int) {
	half := n / 2
	channels := len(m.Mux)

	for ch := 0; ch < channels; ch++ {
		clear(blk.PCM[ch][:half])
		floor := m.Submaps[m.Mux[ch]].Floor
		energy, ok := floor.Decode(r, &blk.floors[ch])
		if !ok {
			blk.fail(r)
			energy = false
		}
		blk.Energy[ch] = energy
		blk.nonzero[ch] = energy
	}

	// Coupled channels are decoded together when either has energy.
	for _, c := range m.Coupling {
		if blk.nonzero[c.Magnitude] || blk.nonzero[c.Angle] {
			blk.nonzero[c.Magnitude] = true
			blk.nonzero[c.Angle] = true
		}
	}

	for s, sub := range m.Submaps {
		bundle, nz := blk.bundle[:0], blk.bundleZ[:0]
		for ch := 0; ch < channels; ch++ {
			if m.Mux[ch] == s {
				bundle = append(bundle, blk.PCM[ch][:half])
				nz = append(nz, blk.nonzero[ch])
			}
		}
		blk.bundle, blk.bundleZ = bundle, nz
		sub.Residue.Decode(r, blk, bundle, nz, half)
	}

	for i := len(m.Coupling) - 1; i >= 0; i-- {
		c := m.Coupling[i]
		Decouple(blk.PCM[c.Magnitude][:half], blk.PCM[c.Angle][:half])
	}

	for ch := 0; ch < channels; ch++ {
		v := blk.PCM[ch][:half]
		if !blk.Energy[ch] {
			clear(v)
			continue
		}
		m.Submaps[m.Mux[ch]].Floor.Apply(&blk.floors[ch], v)
	}
}
