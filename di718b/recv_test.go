package di718b

import (
	"encoding/binary"
	"net"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"golang.org/x/xerrors"
)

func pipeStream(t *testing.T, channels int) (*Conn, net.Conn) {
	t.Helper()

	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	return newConn(client, Config{Channels: channels, FullScale: 1, Fudge: 1}), server
}

func TestRecv(t *testing.T) {
	c, server := pipeStream(t, 3)

	go server.Write(frameBytes(1<<13, 0, 1<<14-1))

	before := time.Now()
	frame, err := c.Recv()
	if err != nil {
		t.Fatalf("recv: %+v", err)
	}

	if len(frame.Values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(frame.Values))
	}
	if frame.Values[0] != 0 || frame.Values[1] != -1 {
		t.Errorf("unexpected values: %v", frame.Values)
	}
	if frame.Values[2] <= 0.999 || frame.Values[2] >= 1 {
		t.Errorf("expected channel 2 just under fullscale, got %f", frame.Values[2])
	}

	// The timestamp reflects arrival, not processing.
	if frame.Time.Before(before) || time.Since(frame.Time) > time.Second {
		t.Errorf("implausible frame timestamp %s", frame.Time)
	}
}

func TestRecvSyncMismatch(t *testing.T) {
	c, server := pipeStream(t, 6)

	// Channel 3 carries the channel-0 marker pattern stripped down to
	// 0x0001, which is wrong everywhere.
	frame := frameBytes(100, 200, 300, 400, 500, 600)
	bad := word(400, false) &^ 0x0100
	binary.LittleEndian.PutUint16(frame[6:], bad)

	go server.Write(frame)

	got, err := c.Recv()
	if ExitCode(err) != ExProtocol {
		t.Fatalf("expected ExProtocol, got %d (%v)", ExitCode(err), err)
	}

	var serr *SyncError
	if !xerrors.As(err, &serr) {
		t.Fatalf("expected a SyncError, got %v", err)
	}
	if serr.Channel != 3 || serr.Word != bad {
		t.Errorf("expected channel 3 word %04X, got channel %d word %04X", bad, serr.Channel, serr.Word)
	}

	// No partial output for a condemned frame.
	if got.Values != nil {
		t.Errorf("expected no values, got %v", got.Values)
	}
}

func TestRecvEOF(t *testing.T) {
	c, server := pipeStream(t, 2)

	server.Close()

	_, err := c.Recv()
	if ExitCode(err) != ExUnavailable {
		t.Fatalf("expected ExUnavailable, got %d (%v)", ExitCode(err), err)
	}
}

func TestRecvPartialFrame(t *testing.T) {
	c, server := pipeStream(t, 2)

	go func() {
		server.Write(frameBytes(1<<13, 1<<13)[:3])
		server.Close()
	}()

	_, err := c.Recv()
	if ExitCode(err) != ExProtocol {
		t.Fatalf("expected ExProtocol, got %d (%v)", ExitCode(err), err)
	}
}

func TestRecvTimeout(t *testing.T) {
	c, _ := pipeStream(t, 2)
	c.timeout = 50 * time.Millisecond

	_, err := c.Recv()
	if ExitCode(err) != ExIOErr {
		t.Fatalf("expected ExIOErr, got %d (%v)", ExitCode(err), err)
	}
}

func TestRecvSignal(t *testing.T) {
	c, _ := pipeStream(t, 2)

	// The caller's own disposition, as the CLI installs before its loop.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGHUP)
	defer signal.Stop(sigc)

	go func() {
		time.Sleep(100 * time.Millisecond)
		syscall.Kill(syscall.Getpid(), syscall.SIGHUP)
	}()

	_, err := c.Recv()
	if ExitCode(err) != ExUnavailable {
		t.Fatalf("expected ExUnavailable, got %d (%v)", ExitCode(err), err)
	}

	// The caller still observes exactly one delivery.
	select {
	case <-sigc:
	case <-time.After(time.Second):
		t.Fatal("caller's signal channel saw no delivery")
	}
	select {
	case sig := <-sigc:
		t.Fatalf("unexpected second delivery: %s", sig)
	case <-time.After(100 * time.Millisecond):
	}
}
