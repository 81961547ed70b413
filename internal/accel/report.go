package accel

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Report summarizes the environment inference will run in.
type Report struct {
	OS          string
	Arch        string
	GoVersion   string
	NumCPU      int
	CPUFeatures []string
	CUDABuild   bool
	CUDADevices int
	Runtime     string // detection runtime version, filled by the caller
}

// Collect gathers the environment report.
func Collect() Report {
	return Report{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		GoVersion:   runtime.Version(),
		NumCPU:      runtime.NumCPU(),
		CPUFeatures: cpuFeatures(),
		CUDABuild:   cudaBuild,
		CUDADevices: cudaDeviceCount(),
	}
}

func cpuFeatures() []string {
	var features []string
	switch runtime.GOARCH {
	case "amd64", "386":
		for _, f := range []struct {
			name string
			ok   bool
		}{
			{"sse4.1", cpu.X86.HasSSE41},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"avx512f", cpu.X86.HasAVX512F},
			{"fma", cpu.X86.HasFMA},
		} {
			if f.ok {
				features = append(features, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			features = append(features, "neon")
		}
		if cpu.ARM64.HasFPHP {
			features = append(features, "fp16")
		}
	}
	return features
}

// String renders the report on a single line for logging.
func (r Report) String() string {
	features := "none"
	if len(r.CPUFeatures) > 0 {
		features = strings.Join(r.CPUFeatures, ",")
	}
	s := fmt.Sprintf("os=%s/%s go=%s cpus=%d simd=%s cuda_build=%t cuda_devices=%d",
		r.OS, r.Arch, r.GoVersion, r.NumCPU, features, r.CUDABuild, r.CUDADevices)
	if r.Runtime != "" {
		s += " runtime=" + r.Runtime
	}
	return s
}
