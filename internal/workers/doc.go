/*
Package workers determines worker pool sizes for the upload pipeline
in containerized environments.

runtime.NumCPU reports the host's CPU count even when a cgroup limit
caps the process at a fraction of it; GOMAXPROCS (set automatically
from the limit in Go 1.19+) is the honest number. The helpers here
scale that number by workload type:

	// CPU-intensive (image decode, JPEG encode)
	n := workers.ForCPU(8)

	// I/O-bound (cache writes, API calls)
	n := workers.ForIO(16)

	// Mixed (the upload pipeline itself)
	n := workers.ForMixed(12)

Operators can override the calculation with the PIPELINE_WORKERS
environment variable.
*/
package workers
