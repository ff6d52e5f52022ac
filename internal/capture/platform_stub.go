//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"fmt"
	"image"
)

type unsupportedBackend struct{}

func newBackend() platformBackend {
	return unsupportedBackend{}
}

func (unsupportedBackend) Monitors() ([]MonitorInfo, error) {
	return nil, fmt.Errorf("monitor listing is not supported on this platform")
}

func (unsupportedBackend) Windows() ([]WindowInfo, error) {
	return nil, fmt.Errorf("window listing is not supported on this platform")
}

func (unsupportedBackend) RootImage() (*image.RGBA, error) {
	return nil, fmt.Errorf("screen capture is not supported on this platform")
}

func runningOnWayland() bool { return false }
