//go:build !linux

package transport

import (
	"io"

	"go.bug.st/serial"
)

// OpenSerial opens a serial port in 8N1 mode at baud.
func OpenSerial(path string, baud int) (io.ReadWriteCloser, error) {
	return serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}
