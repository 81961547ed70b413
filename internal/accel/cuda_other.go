//go:build !cuda

package accel

const cudaBuild = false

// Without the cuda build tag OpenCV is linked without its CUDA modules.
func cudaDeviceCount() int {
	return 0
}
