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

// Package di718b drives DATAQ DI-718B-E(S) data acquisition units over TCP.
//
// The device speaks a small ASCII command protocol: each command is sent as
// a null byte followed by ASCII text, and is acknowledged by the device
// echoing the text back verbatim. Once streaming is started it sends a
// continuous sequence of 16-bit words, one per active channel, carrying a
// 14-bit measurement plus two sync bits.
//
// Protocol reverse-engineered from WinDAQ via Wireshark, with help from
// http://www.ultimaserial.com/hack710.html
package di718b

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxChannels is the most channels any supported unit can scan.
	MaxChannels = 32

	// DefaultPort is the TCP port the device listens on.
	DefaultPort = 10001

	// ioTimeout bounds every transport read and write so a silent or
	// stalled device cannot wedge the caller.
	ioTimeout = time.Second

	// quiesce is how long the device needs after a stop command before
	// it reliably accepts the next command.
	quiesce = 222 * time.Millisecond

	// drainWindow bounds the flush of stale stream data left over from a
	// previous session.
	drainWindow = 10 * time.Millisecond
)

// Config holds the immutable scan parameters for one connection.
type Config struct {
	TimerScaler int    // division from the main 14400 Hz timer
	RateDivisor int    // further division on the output rate
	ScanList    string // hex-coded channel/mode list, order sets channel order
	Channels    int    // scan the first N entries of the scan list

	// FullScale is the engineering-unit full scale of the installed input
	// amplifier module. Fudge is an empirical calibration multiplier.
	FullScale float64
	Fudge     float64
}

func (cfg Config) validate() error {
	if cfg.Channels < 1 || cfg.Channels > MaxChannels {
		return errf(ExDataErr, "requested %d channels exceeds maximum %d channels", cfg.Channels, MaxChannels)
	}
	return nil
}

// Conn is an open, initialized, streaming device session. It is owned by a
// single control flow; no method is safe for concurrent use.
type Conn struct {
	tcp net.Conn
	cfg Config

	session uuid.UUID
	timeout time.Duration
	buf     []byte
}

// Session identifies this capture session in logs and records.
func (c *Conn) Session() uuid.UUID { return c.session }

// Config returns the scan parameters the connection was dialed with.
func (c *Conn) Config() Config { return c.cfg }

// Dial connects to a device, stops any stream left running by a previous
// session, performs the initialization handshake, and starts streaming.
//
// Every handshake step must be acknowledged; the first failure aborts the
// whole connect and is returned as-is.
func Dial(hostname string, port int, cfg Config) (*Conn, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Resolve before dialing so a missing host is distinguishable from a
	// refused connection; to the operator it usually means "unplugged".
	addrs, err := net.LookupHost(hostname)
	if err != nil {
		return nil, &Error{Code: ExNoHost, Msg: fmt.Sprintf("dns lookup for %q failed, is it plugged in?", hostname), Err: err}
	}

	tcp, err := net.DialTimeout("tcp", net.JoinHostPort(addrs[0], strconv.Itoa(port)), ioTimeout)
	if err != nil {
		return nil, &Error{Code: ExUnavailable, Msg: "connecting, is someone else using it?", Err: err}
	}

	c := newConn(tcp, cfg)

	// The device may be mid-stream and not listening for commands, so
	// stop it fire-and-forget and discard whatever it already sent.
	if err := c.stop(); err != nil {
		tcp.Close()
		return nil, err
	}

	for _, cmd := range []struct {
		format string
		args   []interface{}
	}{
		{"X%02X", []interface{}{cfg.TimerScaler}},
		{"M%04X", []interface{}{cfg.RateDivisor}},
		{"L00%s", []interface{}{cfg.ScanList}},
		{"C%02X", []interface{}{cfg.Channels}},
		{"S3", nil},
	} {
		if err := c.Command(cmd.format, cmd.args...); err != nil {
			tcp.Close()
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"host":     hostname,
		"session":  c.session,
		"channels": cfg.Channels,
	}).Info("streaming started")

	return c, nil
}

func newConn(tcp net.Conn, cfg Config) *Conn {
	return &Conn{
		tcp:     tcp,
		cfg:     cfg,
		session: uuid.New(),
		timeout: ioTimeout,
		buf:     make([]byte, 2*cfg.Channels),
	}
}

// Command formats and sends an ASCII command, then verifies the device's
// echo. Outgoing commands carry a leading null byte; the echo omits it.
// Length and content equality of the echo is the device's only
// acknowledgment mechanism.
func (c *Conn) Command(format string, args ...interface{}) error {
	text := fmt.Sprintf(format, args...)

	c.tcp.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := c.tcp.Write(encodeCommand(text)); err != nil {
		return &Error{Code: ExIOErr, Msg: "writing to socket", Err: err}
	}

	echo := make([]byte, len(text))
	c.tcp.SetReadDeadline(time.Now().Add(c.timeout))
	n, err := io.ReadFull(c.tcp, echo)
	switch {
	case err == io.EOF:
		return errf(ExUnavailable, "eof reading from socket")
	case err == io.ErrUnexpectedEOF:
		return errf(ExProtocol, "expected %d echo bytes, read %d bytes", len(text), n)
	case err != nil:
		if n > 0 {
			return &Error{Code: ExProtocol, Msg: fmt.Sprintf("expected %d echo bytes, read %d bytes", len(text), n), Err: err}
		}
		return &Error{Code: ExIOErr, Msg: "reading from socket", Err: err}
	}

	if !bytes.Equal(echo, []byte(text)) {
		return errf(ExProtocol, "expected echo %q, received %q", text, echo)
	}

	log.WithField("cmd", text).Debug("command acknowledged")

	return nil
}

// stop sends the fire-and-forget stop command, waits for the device to
// quiesce, and drains stale stream data. No echo is expected: a device
// that is mid-stream does not acknowledge commands.
func (c *Conn) stop() error {
	c.tcp.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := c.tcp.Write([]byte("\x00T0")); err != nil {
		return &Error{Code: ExIOErr, Msg: "stopping stream", Err: err}
	}

	time.Sleep(quiesce)
	c.drain()

	return nil
}

// drain discards whatever the device has already sent without blocking
// for more.
func (c *Conn) drain() {
	buf := make([]byte, 512)
	c.tcp.SetReadDeadline(time.Now().Add(drainWindow))
	for {
		if _, err := c.tcp.Read(buf); err != nil {
			return
		}
	}
}

// Close stops the stream and releases the connection. Teardown is best
// effort: it typically runs during process shutdown or after a prior
// error, so failures are suppressed. The connection must not be reused.
func (c *Conn) Close() error {
	_ = c.stop()
	return c.tcp.Close()
}
