// DATAQ - A TCP stream client for DATAQ DI-718B-E(S) laboratory data acquisition systems.
// Copyright (C) 2016 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package di718b

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// Recv blocks for one complete sample frame and returns it calibrated.
//
// Termination signals (SIGINT, SIGHUP, SIGTERM) are observed for the
// duration of the read only: a signal arriving mid-read unblocks the read,
// and Recv reports ExUnavailable so the caller can shut down cleanly.
// Notification is additive, so any handler the caller has installed still
// sees the same delivery. Frames are returned in arrival order; a single
// frame's failure does not disturb connection state, and retry policy is
// left to the caller.
func (c *Conn) Recv() (Frame, error) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)

	unarmed := make(chan struct{})
	caught := make(chan os.Signal, 1)
	go func() {
		select {
		case sig := <-sigc:
			caught <- sig
			// Unblock the pending read immediately rather than
			// waiting out the deadline.
			c.tcp.SetReadDeadline(time.Now())
		case <-unarmed:
		}
	}()

	c.tcp.SetReadDeadline(time.Now().Add(c.timeout))
	n, err := io.ReadFull(c.tcp, c.buf)
	ts := time.Now()

	close(unarmed)
	signal.Stop(sigc)

	select {
	case sig := <-caught:
		log.WithField("signal", sig).Debug("receive interrupted")
		return Frame{}, errf(ExUnavailable, "caught %s signal during receive", sig)
	default:
	}

	switch {
	case err == io.EOF:
		return Frame{}, errf(ExUnavailable, "eof reading from socket")
	case err == io.ErrUnexpectedEOF:
		return Frame{}, errf(ExProtocol, "expected %d bytes, read %d bytes", len(c.buf), n)
	case err != nil:
		if n > 0 {
			// Partial frame: read timeout or mid-stream desync.
			return Frame{}, &Error{Code: ExProtocol, Msg: fmt.Sprintf("expected %d bytes, read %d bytes", len(c.buf), n), Err: err}
		}
		return Frame{}, &Error{Code: ExIOErr, Msg: "reading from socket", Err: err}
	}

	values := make([]float64, c.cfg.Channels)
	for ch := range values {
		word := binary.LittleEndian.Uint16(c.buf[2*ch:])

		v, err := DecodeWord(word, ch)
		if err != nil {
			return Frame{}, &Error{Code: ExProtocol, Err: err}
		}

		values[ch] = Calibrate(v, c.cfg.FullScale, c.cfg.Fudge)
	}

	return Frame{Time: ts, Session: c.session, Values: values}, nil
}
