package syntax

import (
	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/huffman"
	"github.com/llehouerou/go-vorbis/internal/spectrum"
	"github.com/pkg/errors"
)

// Setup is the decoded setup header.
type Setup struct {
	Books    []*huffman.Codebook
	Floors   []spectrum.Floor
	Residues []*spectrum.Residue
	Mappings []*spectrum.Mapping
	Modes    []*spectrum.Mode
}

// ParseSetup parses a setup header. The identification header supplies the
// channel count and block sizes the configurations depend on.
func ParseSetup(r *bits.Reader, id *Ident) (*Setup, error) {
	if !readSignature(r, TypeSetup) {
		return nil, ErrNotHeader
	}
	s := &Setup{}

	n := r.ReadInt(8) + 1
	for i := 0; i < n; i++ {
		cb, err := huffman.Read(r)
		if err != nil {
			return nil, setupError(err, "codebook %d", i)
		}
		s.Books = append(s.Books, cb)
	}

	// Time domain transforms are placeholders and must be zero.
	n = r.ReadInt(6) + 1
	for i := 0; i < n; i++ {
		if t := r.ReadInt(16); t != 0 {
			return nil, errors.Wrapf(ErrBadSetup, "syntax: time transform %d has type %d", i, t)
		}
	}

	n = r.ReadInt(6) + 1
	for i := 0; i < n; i++ {
		f, err := spectrum.ReadFloor(r, s.Books, id.BlockSizes)
		if err != nil {
			return nil, setupError(err, "floor %d", i)
		}
		s.Floors = append(s.Floors, f)
	}

	n = r.ReadInt(6) + 1
	for i := 0; i < n; i++ {
		res, err := spectrum.ReadResidue(r, s.Books)
		if err != nil {
			return nil, setupError(err, "residue %d", i)
		}
		s.Residues = append(s.Residues, res)
	}

	n = r.ReadInt(6) + 1
	for i := 0; i < n; i++ {
		m, err := spectrum.ReadMapping(r, id.Channels, s.Floors, s.Residues)
		if err != nil {
			return nil, setupError(err, "mapping %d", i)
		}
		s.Mappings = append(s.Mappings, m)
	}

	n = r.ReadInt(6) + 1
	for i := 0; i < n; i++ {
		m, err := spectrum.ReadMode(r, s.Mappings)
		if err != nil {
			return nil, setupError(err, "mode %d", i)
		}
		s.Modes = append(s.Modes, m)
	}

	if !r.ReadBit() || r.IsShort() {
		return nil, errors.Wrap(ErrBadSetup, "syntax: framing bit not set")
	}
	return s, nil
}

// setupError tags a configuration error with ErrBadSetup while keeping the
// underlying cause reachable through errors.Is.
func setupError(err error, format string, args ...any) error {
	return &setupErr{cause: errors.Wrapf(err, "syntax: "+format, args...)}
}

type setupErr struct{ cause error }

func (e *setupErr) Error() string { return e.cause.Error() }

func (e *setupErr) Unwrap() []error { return []error{ErrBadSetup, e.cause} }
