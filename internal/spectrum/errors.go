package spectrum

import "errors"

// Setup errors.
var (
	// ErrBadFloor indicates an invalid floor configuration.
	ErrBadFloor = errors.New("spectrum: invalid floor")

	// ErrBadResidue indicates an invalid residue configuration.
	ErrBadResidue = errors.New("spectrum: invalid residue")

	// ErrBadMapping indicates an invalid mapping configuration.
	ErrBadMapping = errors.New("spectrum: invalid mapping")

	// ErrBadModeConfig indicates an invalid mode configuration.
	ErrBadModeConfig = errors.New("spectrum: invalid mode")
)

// Packet errors.
var (
	// ErrNotAudio indicates a packet whose first bit is set.
	ErrNotAudio = errors.New("spectrum: not an audio packet")

	// ErrBadMode indicates an audio packet selecting a mode that does not exist.
	ErrBadMode = errors.New("spectrum: audio packet selects unknown mode")
)
