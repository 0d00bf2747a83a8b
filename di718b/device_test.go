package di718b

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
)

// fakeDevice serves the device side of the protocol on a loopback
// listener: it swallows the fire-and-forget stop, echoes each expected
// command, then streams frames.
type fakeDevice struct {
	junk   []byte              // stale stream data sent on accept
	mutate func(string) string // corrupts command echoes
	frames [][]byte            // streamed after the start command

	done chan struct{} // closing it hangs up the device
}

// frameBytes renders one frame of 14-bit values as little-endian stream
// words with correct sync flags.
func frameBytes(values ...uint16) []byte {
	buf := make([]byte, 2*len(values))
	for ch, v := range values {
		binary.LittleEndian.PutUint16(buf[2*ch:], word(v, ch == 0))
	}
	return buf
}

// serve starts the fake device and returns its port. cmds is the exact
// expected initialization sequence, without leading nulls.
func (fd *fakeDevice) serve(t *testing.T, cmds []string) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	fd.done = make(chan struct{})
	t.Cleanup(func() {
		close(fd.done)
		ln.Close()
	})

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if len(fd.junk) > 0 {
			conn.Write(fd.junk)
		}

		stop := make([]byte, 3)
		if _, err := io.ReadFull(conn, stop); err != nil {
			return
		}

		for _, cmd := range cmds {
			buf := make([]byte, len(cmd)+1)
			if _, err := io.ReadFull(conn, buf); err != nil {
				return
			}

			echo := string(buf[1:])
			if fd.mutate != nil {
				echo = fd.mutate(echo)
			}
			if _, err := conn.Write([]byte(echo)); err != nil {
				return
			}
		}

		for _, frame := range fd.frames {
			if _, err := conn.Write(frame); err != nil {
				return
			}
		}

		<-fd.done
	}()

	return ln.Addr().(*net.TCPAddr).Port
}
