package transport

import (
	"fmt"
	"os"
)

// AutoDetectDevice returns the first USB CDC/ACM or USB serial device that
// exists, or "" when none does.
func AutoDetectDevice() string {
	return autoDetect(func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})
}

func autoDetect(exists func(string) bool) string {
	for _, prefix := range []string{"/dev/ttyACM", "/dev/ttyUSB"} {
		for i := 0; i < 10; i++ {
			p := fmt.Sprintf("%s%d", prefix, i)
			if exists(p) {
				return p
			}
		}
	}
	return ""
}
