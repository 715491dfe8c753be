package tables

import "math"

// InverseDB maps a floor 1 amplitude (0..255) to a linear gain. Steps are
// 0.546875 dB wide and entry 255 is unity.
var InverseDB = func() (t [256]float32) {
	for i := range t {
		db := float64(i-255) * 0.546875
		t[i] = float32(math.Pow(10, db/20))
	}
	return t
}()

// Floor1Range is the range of floor 1 Y values for each multiplier (1..4).
var Floor1Range = [4]int{256, 128, 86, 64}
