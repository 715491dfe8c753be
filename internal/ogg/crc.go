package ogg

// The Ogg checksum is a CRC-32 with polynomial 0x04C11DB7, no reflection,
// zero initial value and no final xor. hash/crc32 only implements the
// reflected form.
var crcTable = func() (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04C11DB7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

func crcUpdate(crc uint32, p []byte) uint32 {
	for _, b := range p {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// pageChecksum computes the checksum of a complete page, treating the
// stored checksum field as zero.
func pageChecksum(page []byte) uint32 {
	var zero [4]byte
	crc := crcUpdate(0, page[:crcOffset])
	crc = crcUpdate(crc, zero[:])
	return crcUpdate(crc, page[crcOffset+4:])
}
