//go:build !linux

package gpio

import "fmt"

func openLine(string, int) (Line, error) {
	return nil, fmt.Errorf("gpio unsupported on this platform")
}
