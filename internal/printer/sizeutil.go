package printer

import "fmt"

var byteUnits = []string{"KB", "MB", "GB", "TB"}

// FormatBytes returns a human-readable byte size string using binary units.
// Examples: "0 B", "512 B", "1.5 KB", "700.0 MB", "10.0 GB".
func FormatBytes(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", max(bytes, 0))
	}

	size := float64(bytes) / 1024
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}

	return fmt.Sprintf("%.1f %s", size, byteUnits[unit])
}

// FormatMemoryMB returns a human-readable string of a memory size given in megabytes.
func FormatMemoryMB(mb uint32) string {
	return FormatBytes(int64(mb) * 1024 * 1024)
}
