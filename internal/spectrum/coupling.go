package spectrum

// CouplingStep couples a magnitude channel with an angle channel.
type CouplingStep struct {
	Magnitude int
	Angle     int
}

// Decouple turns a magnitude/angle pair back into two channels, in place.
// The sign of each operand decides which channel keeps the magnitude and
// whether the angle is added or subtracted.
func Decouple(mag, ang []float32) {
	for i := range mag {
		m, a := mag[i], ang[i]
		switch {
		case m > 0 && a > 0:
			mag[i], ang[i] = m, m-a
		case m > 0:
			mag[i], ang[i] = m+a, m
		case a > 0:
			mag[i], ang[i] = m, m+a
		default:
			mag[i], ang[i] = m-a, m
		}
	}
}
