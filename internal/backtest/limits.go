package backtest

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// ClampWorkers bounds the sweep worker count by CPU count and available
// memory. A requested value of zero or less means "use the CPU count".
func ClampWorkers(requested int) int {
	workers := requested
	cpus := runtime.NumCPU()
	if workers <= 0 || workers > cpus {
		workers = cpus
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		switch {
		case vm.Available < 256<<20:
			workers = 1
		case vm.Available < 1<<30:
			if workers > 2 {
				workers = 2
			}
		}
	}

	if workers < 1 {
		workers = 1
	}
	return workers
}
