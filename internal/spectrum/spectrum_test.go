package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/huffman"
	"github.com/llehouerou/go-vorbis/internal/tables"
)

func mustBook(t *testing.T, dims int, lengths []int8, lk *huffman.Lookup) *huffman.Codebook {
	t.Helper()
	cb, err := huffman.New(dims, lengths, lk)
	if err != nil {
		t.Fatalf("huffman.New: %v", err)
	}
	return cb
}

func writeEntry(w *bits.Writer, cb *huffman.Codebook, e int) {
	code, n := cb.Codeword(e)
	w.WriteBits(uint64(code), n)
}

func closeTo(a, b float32) bool {
	return math.Abs(float64(a-b)) <= 1e-6*math.Max(1, math.Abs(float64(b)))
}

func TestDecouple(t *testing.T) {
	tests := []struct {
		name             string
		mag, ang         float32
		wantMag, wantAng float32
	}{
		{"both positive", 5, 2, 5, 3},
		{"positive magnitude", 5, -2, 3, 5},
		{"positive angle", -5, 2, -5, -3},
		{"both negative", -5, -2, -3, -5},
		{"zero", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mag, ang := []float32{tt.mag}, []float32{tt.ang}
			Decouple(mag, ang)
			if mag[0] != tt.wantMag || ang[0] != tt.wantAng {
				t.Errorf("Decouple(%v, %v) = %v, %v, want %v, %v",
					tt.mag, tt.ang, mag[0], ang[0], tt.wantMag, tt.wantAng)
			}
		})
	}
}

func TestRenderPoint(t *testing.T) {
	tests := []struct {
		x0, y0, x1, y1, x, want int
	}{
		{0, 10, 3, 5, 2, 7},
		{0, 0, 8, 16, 3, 6},
		{0, 100, 16, 100, 9, 100},
		{0, 10 | unusedPost, 4, 20, 2, 15},
	}
	for _, tt := range tests {
		if got := renderPoint(tt.x0, tt.y0, tt.x1, tt.y1, tt.x); got != tt.want {
			t.Errorf("renderPoint(%d, %d, %d, %d, %d) = %d, want %d",
				tt.x0, tt.y0, tt.x1, tt.y1, tt.x, got, tt.want)
		}
	}
}

func TestRenderLine(t *testing.T) {
	tests := []struct {
		name      string
		n, x0, x1 int
		y0, y1    int
		want      []int
	}{
		{"integer slope", 8, 0, 8, 0, 16, []int{0, 2, 4, 6, 8, 10, 12, 14}},
		{"falling", 3, 0, 3, 10, 5, []int{10, 9, 7}},
		{"clipped to n", 2, 0, 8, 0, 16, []int{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := make([]float32, len(tt.want))
			for i := range v {
				v[i] = 1
			}
			renderLine(v, tt.n, tt.x0, tt.x1, tt.y0, tt.y1)
			for i, y := range tt.want {
				if v[i] != tables.InverseDB[y] {
					t.Errorf("v[%d] = %v, want InverseDB[%d] = %v", i, v[i], y, tables.InverseDB[y])
				}
			}
		})
	}
}

// floor1Fixture returns a floor 1 with posts at 0, 16, 8 and 4 and the
// books it uses.
func floor1Fixture(t *testing.T) (*Floor1, []*huffman.Codebook) {
	t.Helper()
	books := []*huffman.Codebook{
		mustBook(t, 1, []int8{1, 1}, nil),
		mustBook(t, 1, []int8{3, 3, 3, 3, 3, 3, 3, 3}, nil),
	}
	var w bits.Writer
	w.WriteBits(1, 16) // floor type
	w.WriteBits(1, 5)  // partitions
	w.WriteBits(0, 4)  // partition 0 uses class 0
	w.WriteBits(1, 3)  // class 0 has two dimensions
	w.WriteBits(0, 2)  // no subclasses
	w.WriteBits(2, 8)  // subclass book 1
	w.WriteBits(0, 2)  // multiplier 1
	w.WriteBits(4, 4)  // range bits
	w.WriteBits(8, 4)
	w.WriteBits(4, 4)

	f, err := ReadFloor(bits.NewReader(w.Bytes()), books, [2]int{32, 64})
	if err != nil {
		t.Fatalf("ReadFloor: %v", err)
	}
	f1, ok := f.(*Floor1)
	if !ok {
		t.Fatalf("ReadFloor returned %T, want *Floor1", f)
	}
	return f1, books
}

func TestFloor1DecodeApply(t *testing.T) {
	f, books := floor1Fixture(t)
	if got := f.sorted; got[0] != 0 || got[1] != 3 || got[2] != 2 || got[3] != 1 {
		t.Fatalf("sorted = %v, want [0 3 2 1]", got)
	}
	if f.low[3] != 0 || f.high[3] != 2 {
		t.Fatalf("neighbours of post 3 = %d, %d, want 0, 2", f.low[3], f.high[3])
	}

	var w bits.Writer
	w.WriteBit(true)
	w.WriteBits(100, 8)
	w.WriteBits(100, 8)
	writeEntry(&w, books[1], 0) // post 2 predicted
	writeEntry(&w, books[1], 4) // post 3 two above its prediction

	var d FloorData
	energy, ok := f.Decode(bits.NewReader(w.Bytes()), &d)
	if !energy || !ok {
		t.Fatalf("Decode = %v, %v, want true, true", energy, ok)
	}
	wantPosts := []int{100, 100, 100, 102}
	for i, y := range wantPosts {
		if d.posts[i] != y {
			t.Errorf("posts[%d] = %#x, want %d", i, d.posts[i], y)
		}
	}

	v := make([]float32, 16)
	for i := range v {
		v[i] = 1
	}
	f.Apply(&d, v)
	want := []int{100, 100, 101, 101, 102, 102, 101, 101, 100, 100, 100, 100, 100, 100, 100, 100}
	for i, y := range want {
		if v[i] != tables.InverseDB[y] {
			t.Errorf("v[%d] = %v, want InverseDB[%d]", i, v[i], y)
		}
	}
}

func TestFloor1Silent(t *testing.T) {
	f, _ := floor1Fixture(t)
	var d FloorData
	energy, ok := f.Decode(bits.NewReader([]byte{0x00}), &d)
	if energy || !ok {
		t.Errorf("Decode = %v, %v, want false, true", energy, ok)
	}
	energy, ok = f.Decode(bits.NewReader(nil), &d)
	if energy || ok {
		t.Errorf("Decode on empty packet = %v, %v, want false, false", energy, ok)
	}
}

func TestFloor1DuplicatePosts(t *testing.T) {
	books := []*huffman.Codebook{mustBook(t, 1, []int8{1, 1}, nil)}
	var w bits.Writer
	w.WriteBits(1, 16)
	w.WriteBits(1, 5)
	w.WriteBits(0, 4)
	w.WriteBits(1, 3)
	w.WriteBits(0, 2)
	w.WriteBits(0, 8)
	w.WriteBits(0, 2)
	w.WriteBits(4, 4)
	w.WriteBits(5, 4)
	w.WriteBits(5, 4)
	if _, err := ReadFloor(bits.NewReader(w.Bytes()), books, [2]int{32, 64}); !errors.Is(err, ErrBadFloor) {
		t.Errorf("error = %v, want ErrBadFloor", err)
	}
}

func TestFloor0(t *testing.T) {
	books := []*huffman.Codebook{
		mustBook(t, 2, []int8{1, 1}, &huffman.Lookup{
			Type:          huffman.MapExplicit,
			Delta:         0.25,
			Multiplicands: []uint32{1, 2, 3, 4},
		}),
	}
	var w bits.Writer
	w.WriteBits(0, 16)    // floor type
	w.WriteBits(4, 8)     // order
	w.WriteBits(8000, 16) // rate
	w.WriteBits(64, 16)   // bark map size
	w.WriteBits(6, 6)     // amplitude bits
	w.WriteBits(100, 8)   // amplitude offset
	w.WriteBits(0, 4)     // one book
	w.WriteBits(0, 8)
	fl, err := ReadFloor(bits.NewReader(w.Bytes()), books, [2]int{32, 256})
	if err != nil {
		t.Fatalf("ReadFloor: %v", err)
	}
	f := fl.(*Floor0)

	m := f.maps[1]
	if len(m) != 129 || m[128] != -1 {
		t.Fatalf("bark map length %d, sentinel %d", len(m), m[len(m)-1])
	}
	for i := 1; i < 128; i++ {
		if m[i] < m[i-1] || m[i] > 63 {
			t.Fatalf("bark map[%d] = %d after %d", i, m[i], m[i-1])
		}
	}

	w = bits.Writer{}
	w.WriteBits(63, 6)
	w.WriteBits(0, 1)
	writeEntry(&w, books[0], 0)
	writeEntry(&w, books[0], 1)
	var d FloorData
	energy, ok := f.Decode(bits.NewReader(w.Bytes()), &d)
	if !energy || !ok {
		t.Fatalf("Decode = %v, %v, want true, true", energy, ok)
	}
	if d.amp != 100 {
		t.Errorf("amp = %v, want 100", d.amp)
	}
	wantLSP := []float32{0.25, 0.5, 1.25, 1.5}
	for i, c := range wantLSP {
		if !closeTo(d.lsp[i], c) {
			t.Errorf("lsp[%d] = %v, want %v", i, d.lsp[i], c)
		}
	}

	v := make([]float32, 16)
	for i := range v {
		v[i] = 1
	}
	f.Apply(&d, v)
	bm := f.maps[0]
	for i, g := range v {
		if g < 0 || math.IsNaN(float64(g)) {
			t.Fatalf("curve[%d] = %v", i, g)
		}
		if i > 0 && bm[i] == bm[i-1] && g != v[i-1] {
			t.Errorf("curve differs inside bark band %d", bm[i])
		}
	}

	energy, ok = f.Decode(bits.NewReader([]byte{0}), &d)
	if energy || !ok {
		t.Errorf("zero amplitude: Decode = %v, %v, want false, true", energy, ok)
	}
}

// residueFixture builds a residue of the given type over [0, 8) with
// partitions of 4 and two classes, of which class 1 uses a lattice book.
func residueFixture(t *testing.T, typ int) (*Residue, []*huffman.Codebook) {
	t.Helper()
	books := []*huffman.Codebook{
		mustBook(t, 1, []int8{1, 1}, nil),
		mustBook(t, 2, []int8{2, 2, 2, 2}, &huffman.Lookup{
			Type:          huffman.MapLattice,
			Min:           -1,
			Delta:         2,
			Multiplicands: []uint32{0, 1},
		}),
	}
	var w bits.Writer
	w.WriteBits(uint64(typ), 16)
	w.WriteBits(0, 24) // begin
	w.WriteBits(8, 24) // end
	w.WriteBits(3, 24) // partition size 4
	w.WriteBits(1, 6)  // two classifications
	w.WriteBits(0, 8)  // classification book
	w.WriteBits(0, 3)  // class 0: no stages
	w.WriteBit(false)
	w.WriteBits(1, 3) // class 1: stage 0
	w.WriteBit(false)
	w.WriteBits(1, 8) // stage book
	res, err := ReadResidue(bits.NewReader(w.Bytes()), books)
	if err != nil {
		t.Fatalf("ReadResidue: %v", err)
	}
	return res, books
}

// residuePacket codes partition 0 with class 1 (vectors 1 and 3) and
// partition 1 with class 0.
func residuePacket(books []*huffman.Codebook) []byte {
	var w bits.Writer
	writeEntry(&w, books[0], 1)
	writeEntry(&w, books[1], 1)
	writeEntry(&w, books[1], 3)
	writeEntry(&w, books[0], 0)
	return w.Bytes()
}

func TestResidueTypes(t *testing.T) {
	tests := []struct {
		typ  int
		want []float32
	}{
		{0, []float32{1, 1, -1, 1, 0, 0, 0, 0}},
		{1, []float32{1, -1, 1, 1, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		res, books := residueFixture(t, tt.typ)
		v := make([]float32, 8)
		blk := NewBlock(1, 16)
		res.Decode(bits.NewReader(residuePacket(books)), blk, [][]float32{v}, []bool{true}, 8)
		if blk.Corrupt || blk.Short {
			t.Fatalf("type %d: corrupt %v short %v", tt.typ, blk.Corrupt, blk.Short)
		}
		for i := range tt.want {
			if v[i] != tt.want[i] {
				t.Errorf("type %d: v = %v, want %v", tt.typ, v, tt.want)
				break
			}
		}
	}
}

func TestResidueType2(t *testing.T) {
	res, books := residueFixture(t, 2)
	left, right := make([]float32, 8), make([]float32, 8)
	blk := NewBlock(2, 16)
	res.Decode(bits.NewReader(residuePacket(books)), blk, [][]float32{left, right}, []bool{false, true}, 8)

	wantL := []float32{1, 1, 0, 0, 0, 0, 0, 0}
	wantR := []float32{-1, 1, 0, 0, 0, 0, 0, 0}
	for i := range wantL {
		if left[i] != wantL[i] || right[i] != wantR[i] {
			t.Fatalf("left = %v, right = %v, want %v, %v", left, right, wantL, wantR)
		}
	}

	// Nothing is read when no channel has energy.
	r := bits.NewReader(residuePacket(books))
	res.Decode(r, blk, [][]float32{left, right}, []bool{false, false}, 8)
	if r.Position() != 0 {
		t.Errorf("Position = %d, want 0", r.Position())
	}
}

func TestResidueShortPacket(t *testing.T) {
	res, _ := residueFixture(t, 1)
	v := make([]float32, 8)
	blk := NewBlock(1, 16)
	res.Decode(bits.NewReader(nil), blk, [][]float32{v}, []bool{true}, 8)
	if !blk.Short {
		t.Error("block not marked short")
	}
}

func TestReadResidueErrors(t *testing.T) {
	scalar := mustBook(t, 1, []int8{1, 1}, nil)
	t.Run("too many classifications", func(t *testing.T) {
		var w bits.Writer
		w.WriteBits(1, 16)
		w.WriteBits(0, 24)
		w.WriteBits(8, 24)
		w.WriteBits(3, 24)
		w.WriteBits(2, 6) // three classifications, two entries
		w.WriteBits(0, 8)
		for i := 0; i < 3; i++ {
			w.WriteBits(0, 3)
			w.WriteBit(false)
		}
		_, err := ReadResidue(bits.NewReader(w.Bytes()), []*huffman.Codebook{scalar})
		if !errors.Is(err, ErrBadResidue) {
			t.Errorf("error = %v, want ErrBadResidue", err)
		}
	})
	t.Run("stage book without lookup", func(t *testing.T) {
		var w bits.Writer
		w.WriteBits(1, 16)
		w.WriteBits(0, 24)
		w.WriteBits(8, 24)
		w.WriteBits(3, 24)
		w.WriteBits(0, 6)
		w.WriteBits(0, 8)
		w.WriteBits(1, 3)
		w.WriteBit(false)
		w.WriteBits(0, 8)
		_, err := ReadResidue(bits.NewReader(w.Bytes()), []*huffman.Codebook{scalar})
		if !errors.Is(err, ErrBadResidue) {
			t.Errorf("error = %v, want ErrBadResidue", err)
		}
	})
}

func TestReadMappingErrors(t *testing.T) {
	floors := []Floor{&Floor1{}}
	residues := []*Residue{{}}
	tests := []struct {
		name  string
		write func(w *bits.Writer)
	}{
		{"type", func(w *bits.Writer) { w.WriteBits(1, 16) }},
		{"self coupling", func(w *bits.Writer) {
			w.WriteBits(0, 16)
			w.WriteBit(false)
			w.WriteBit(true)
			w.WriteBits(0, 8)
			w.WriteBits(1, 1)
			w.WriteBits(1, 1)
		}},
		{"reserved", func(w *bits.Writer) {
			w.WriteBits(0, 16)
			w.WriteBit(false)
			w.WriteBit(false)
			w.WriteBits(2, 2)
		}},
		{"floor index", func(w *bits.Writer) {
			w.WriteBits(0, 16)
			w.WriteBit(false)
			w.WriteBit(false)
			w.WriteBits(0, 2)
			w.WriteBits(0, 8)
			w.WriteBits(1, 8)
			w.WriteBits(0, 8)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w bits.Writer
			tt.write(&w)
			_, err := ReadMapping(bits.NewReader(w.Bytes()), 2, floors, residues)
			if !errors.Is(err, ErrBadMapping) {
				t.Errorf("error = %v, want ErrBadMapping", err)
			}
		})
	}
}

func TestReadPacketHeader(t *testing.T) {
	modes := []*Mode{{Long: false}, {Long: true}}
	sizes := [2]int{256, 2048}

	var w bits.Writer
	w.WriteBit(false)
	w.WriteBits(1, 1)
	w.WriteBit(true)
	w.WriteBit(false)
	h, err := ReadPacketHeader(bits.NewReader(w.Bytes()), modes, sizes)
	if err != nil {
		t.Fatalf("ReadPacketHeader: %v", err)
	}
	if h.Size != 2048 || !h.PrevLong || h.NextLong || h.Mode != modes[1] {
		t.Errorf("header = %+v", h)
	}
	if n, ok := PacketBlockSize(bits.NewReader(w.Bytes()), modes, sizes); !ok || n != 2048 {
		t.Errorf("PacketBlockSize = %d, %v, want 2048, true", n, ok)
	}

	if _, err := ReadPacketHeader(bits.NewReader([]byte{0x01}), modes, sizes); !errors.Is(err, ErrNotAudio) {
		t.Errorf("error = %v, want ErrNotAudio", err)
	}

	three := []*Mode{{}, {}, {}}
	w = bits.Writer{}
	w.WriteBit(false)
	w.WriteBits(3, 2)
	if _, err := ReadPacketHeader(bits.NewReader(w.Bytes()), three, sizes); !errors.Is(err, ErrBadMode) {
		t.Errorf("error = %v, want ErrBadMode", err)
	}
	if _, ok := PacketBlockSize(bits.NewReader(nil), modes, sizes); ok {
		t.Error("PacketBlockSize on empty packet reports audio")
	}
}
