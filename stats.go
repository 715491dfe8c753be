package vorbis

// Stats counts what a Decoder has done since it was created.
type Stats struct {
	AudioPackets   int64 // audio packets decoded
	IgnoredPackets int64 // non-audio packets after the headers
	CorruptPackets int64 // packets with a codeword or mode that failed to decode
	ShortPackets   int64 // packets that ended before decoding did
	Resyncs        int64 // packets that followed a loss of sync
	Samples        int64 // sample frames decoded, including discarded ones
	ClippedSamples int64 // samples limited by clipping

	PacketBits   int64 // payload bits of the packets read, headers included
	OverheadBits int64 // Ogg page header bits of the packets read
	WasteBits    int64 // bits skipped in the container while looking for pages
}
