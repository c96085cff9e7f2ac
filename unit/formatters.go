package unit

import "fmt"

// Common display formatters, called with the plain value.

// FormatDecibel renders gain values, collapsing the bottom of the range to
// silence.
func FormatDecibel(db float64) string {
	if db <= -60 {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// FormatFrequency renders frequencies with Hz/kHz scaling.
func FormatFrequency(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f Hz", hz)
}

// FormatPercent renders a 0..100 value.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// FormatOnOff renders a toggle.
func FormatOnOff(value float64) string {
	if value > 0.5 {
		return "On"
	}
	return "Off"
}

// FormatMilliseconds renders durations with ms/s scaling.
func FormatMilliseconds(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2f s", ms/1000)
	}
	return fmt.Sprintf("%.1f ms", ms)
}
