package spectrum

import (
	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/huffman"
	"github.com/llehouerou/go-vorbis/internal/tables"
	"github.com/pkg/errors"
)

// Residue is a residue configuration. Type 0 interleaves the dimensions of
// each vector across a partition, type 1 stores them in order and type 2
// codes all channels of a submap as one interleaved vector.
type Residue struct {
	Type     int
	Begin    int
	End      int
	PartSize int

	classifications int
	classBook       *huffman.Codebook
	cascade         []int
	books           [][8]*huffman.Codebook // per classification and stage
	stages          int

	// decodeMap expands a classification codeword into one class per
	// partition.
	decodeMap [][]int
}

// ReadResidue parses one residue configuration.
func ReadResidue(r *bits.Reader, books []*huffman.Codebook) (*Residue, error) {
	res := &Residue{Type: r.ReadInt(16)}
	if res.Type > 2 {
		return nil, errors.Wrapf(ErrBadResidue, "spectrum: residue type %d", res.Type)
	}
	res.Begin = r.ReadInt(24)
	res.End = r.ReadInt(24)
	res.PartSize = r.ReadInt(24) + 1
	res.classifications = r.ReadInt(6) + 1
	cb, err := book(books, r.ReadInt(8), ErrBadResidue, "residue classification")
	if err != nil {
		return nil, err
	}
	res.classBook = cb

	res.cascade = make([]int, res.classifications)
	for i := range res.cascade {
		low := r.ReadInt(3)
		high := 0
		if r.ReadBit() {
			high = r.ReadInt(5)
		}
		res.cascade[i] = high<<3 | low
		res.stages = max(res.stages, tables.ILog(res.cascade[i]))
	}

	res.books = make([][8]*huffman.Codebook, res.classifications)
	for i, c := range res.cascade {
		for s := 0; s < 8; s++ {
			if c&(1<<s) == 0 {
				continue
			}
			b, err := book(books, r.ReadInt(8), ErrBadResidue, "residue stage")
			if err != nil {
				return nil, err
			}
			if !b.HasLookup() {
				return nil, errors.Wrap(ErrBadResidue, "spectrum: residue stage book without lookup")
			}
			res.books[i][s] = b
		}
	}
	if r.IsShort() {
		return nil, errors.Wrap(ErrBadResidue, "spectrum: residue header truncated")
	}

	// Every classification word must name a valid class per partition.
	dims := cb.Dimensions
	if dims < 1 {
		return nil, errors.Wrap(ErrBadResidue, "spectrum: classification book without dimensions")
	}
	partVals := 1
	for i := 0; i < dims; i++ {
		partVals *= res.classifications
		if partVals > cb.Entries {
			return nil, errors.Wrapf(ErrBadResidue, "spectrum: %d classifications of %d dimensions exceed %d entries",
				res.classifications, dims, cb.Entries)
		}
	}
	res.decodeMap = make([][]int, partVals)
	for j := range res.decodeMap {
		m := make([]int, dims)
		val, div := j, partVals/res.classifications
		for k := range m {
			m[k] = val / div
			val -= m[k] * div
			div /= res.classifications
		}
		res.decodeMap[j] = m
	}
	return res, nil
}

// Decode adds the residue of one submap into vectors, the first halves of
// the submap's channel blocks. n is the half block size. Channels whose
// nonzero flag is false are left untouched.
func (res *Residue) Decode(r *bits.Reader, blk *Block, vectors [][]float32, nonzero []bool, n int) {
	if res.Type == 2 {
		energy := false
		for _, nz := range nonzero {
			energy = energy || nz
		}
		if !energy {
			return
		}
		ch := len(vectors)
		res.decodePartitions(r, blk, 1, n*ch, func(b *huffman.Codebook, _, off int) bool {
			return addInterleaved(r, b, vectors, off, res.PartSize)
		})
		return
	}

	used := blk.used[:0]
	for i, v := range vectors {
		if nonzero[i] {
			used = append(used, v)
		}
	}
	blk.used = used
	if len(used) == 0 {
		return
	}
	if res.Type == 0 {
		res.decodePartitions(r, blk, len(used), n, func(b *huffman.Codebook, ch, off int) bool {
			return addStepped(r, blk, b, used[ch][off:off+res.PartSize])
		})
		return
	}
	res.decodePartitions(r, blk, len(used), n, func(b *huffman.Codebook, ch, off int) bool {
		return addSequential(r, b, used[ch][off:off+res.PartSize])
	})
}

// decodePartitions runs the classification and stage passes over channels
// vectors of length n, calling add for every partition a stage codes.
func (res *Residue) decodePartitions(r *bits.Reader, blk *Block, channels, n int,
	add func(b *huffman.Codebook, ch, off int) bool) {
	end := min(res.End, n)
	if end <= res.Begin {
		return
	}
	partVals := (end - res.Begin) / res.PartSize
	if partVals == 0 {
		return
	}
	classes := blk.classScratch(channels, partVals)
	perWord := res.classBook.Dimensions

	for s := 0; s < res.stages; s++ {
		for i := 0; i < partVals; {
			if s == 0 {
				for ch := 0; ch < channels; ch++ {
					w := res.classBook.DecodeScalar(r)
					if w < 0 || w >= len(res.decodeMap) {
						blk.fail(r)
						return
					}
					for k, c := range res.decodeMap[w] {
						if i+k < partVals {
							classes[ch][i+k] = c
						}
					}
				}
			}
			for k := 0; k < perWord && i < partVals; k, i = k+1, i+1 {
				for ch := 0; ch < channels; ch++ {
					c := classes[ch][i]
					if res.cascade[c]&(1<<s) == 0 {
						continue
					}
					b := res.books[c][s]
					if b == nil {
						continue
					}
					if !add(b, ch, res.Begin+i*res.PartSize) {
						blk.fail(r)
						return
					}
				}
			}
		}
	}
}

// addStepped decodes a type 0 partition: entry j of the partition supplies
// v[j], v[j+step], v[j+2*step] and so on.
func addStepped(r *bits.Reader, blk *Block, b *huffman.Codebook, v []float32) bool {
	dims := b.Dimensions
	step := len(v) / dims
	vecs := blk.vecs[:0]
	for j := 0; j < step; j++ {
		e := b.DecodeVector(r)
		if e == nil {
			return false
		}
		vecs = append(vecs, e)
	}
	blk.vecs = vecs
	for i, o := 0, 0; i < dims; i, o = i+1, o+step {
		for j := 0; j < step && o+j < len(v); j++ {
			v[o+j] += vecs[j][i]
		}
	}
	return true
}

// addSequential decodes a type 1 partition, vector after vector.
func addSequential(r *bits.Reader, b *huffman.Codebook, v []float32) bool {
	for i := 0; i < len(v); {
		e := b.DecodeVector(r)
		if e == nil {
			return false
		}
		for j := 0; j < len(e) && i < len(v); j++ {
			v[i] += e[j]
			i++
		}
	}
	return true
}

// addInterleaved decodes a type 2 partition of the virtual vector whose
// element k belongs to channel k%ch at position k/ch.
func addInterleaved(r *bits.Reader, b *huffman.Codebook, vectors [][]float32, off, size int) bool {
	ch := len(vectors)
	for k := off; k < off+size; {
		e := b.DecodeVector(r)
		if e == nil {
			return false
		}
		for j := 0; j < len(e) && k < off+size; j++ {
			vectors[k%ch][k/ch] += e[j]
			k++
		}
	}
	return true
}
