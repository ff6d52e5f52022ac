//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import "fmt"

func platformWritePNG([]byte) error {
	return fmt.Errorf("clipboard image operations are not supported on this platform")
}

func platformReadPNG() ([]byte, error) {
	return nil, fmt.Errorf("clipboard image operations are not supported on this platform")
}
