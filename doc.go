// Package vorbis provides a pure Go Ogg Vorbis decoder.
//
// The decoder reads Vorbis I audio carried in an Ogg container and produces
// 32-bit float samples, without cgo.
//
// # Basic Usage
//
// To decode a file:
//
//	f, err := os.Open("music.ogg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	dec, err := vorbis.NewDecoder(f, vorbis.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dec.Close()
//
//	buf := make([]float32, 4096*dec.Channels())
//	for {
//	    n, err := dec.Read(buf)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    // Use buf[:n], interleaved by channel...
//	}
//
// # Streams
//
// An Ogg input may hold several logical streams, interleaved or one after
// the other. Open returns a Container whose NextStream yields a Decoder per
// Vorbis stream. Reader plays chained streams in sequence and reports
// format changes with ErrFormatChange.
//
// # Seeking
//
// Decoders over an io.ReadSeeker support Seek, SeekTime and TotalSamples.
// Positions are counted in sample frames, in the granule positions of the
// stream.
//
// Only the end of a stream is trimmed to its granule position. The start is
// not: when the first audio page ends on a granule below the number of
// frames its packets decode to, as in streams cut from a longer one,
// libvorbis's vorbisfile drops the surplus leading frames while this
// package plays them. Positions then run ahead of the page granules by
// that surplus until the next seek or resync.
//
// # Damaged Input
//
// Damage inside the audio is not reported as an error. Pages with a bad
// checksum are skipped, and packets that fail to decode are
// partly or fully silenced. Stats counts these events and Config.Logger
// receives them. Errors are returned for input that is not Ogg Vorbis, for
// invalid headers, and for granule positions going backwards.
//
// # Thread Safety
//
// Decoder, Reader and Container instances are NOT safe for concurrent use.
// Decoders created by separate NewDecoder or Open calls are independent.
package vorbis
