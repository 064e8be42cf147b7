package runtime

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// SampleRSS reports this process's current resident set size via gopsutil,
// the same telemetry source bearer's Worker config samples against
// MemorySoftMaximum/MemoryMaximum. It is advisory only — the authoritative
// max_bytes/scan_time caps are Budget's own in-memory counters (spec.md
// §4.4) — so a sampling failure is reported, never fatal.
func SampleRSS() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
