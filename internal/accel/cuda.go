//go:build cuda

package accel

import "gocv.io/x/gocv/cuda"

const cudaBuild = true

func cudaDeviceCount() int {
	return cuda.GetCudaEnabledDeviceCount()
}
