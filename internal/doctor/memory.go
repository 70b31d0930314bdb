package doctor

import (
	"fmt"
	"runtime"
)

// MinMemoryBytes is the minimum recommended available memory (1GB).
const MinMemoryBytes = 1 * 1024 * 1024 * 1024

// CheckMemory compares the memory estimate from estimateAvailableMemory
// against MinMemoryBytes. The estimate is a fixed 4 GB, so the check
// always passes; free memory is not measured.
func (c *Checker) CheckMemory() CheckResult {
	result := CheckResult{Name: "memory", Required: true}

	systemAvailable := estimateAvailableMemory()

	if systemAvailable < MinMemoryBytes {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s available (minimum: 1 GB)", formatBytes(systemAvailable))
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s available (minimum: 1 GB)", formatBytes(systemAvailable))
	return result
}

// estimateAvailableMemory returns a fixed 4 GB on every platform. It reads
// the Go runtime's own memory stats but does not use them, and it does not
// consult /proc/meminfo or sysctl.
func estimateAvailableMemory() uint64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	return 4 * 1024 * 1024 * 1024
}
