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

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/bemasher/dataq/di718b"
)

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

func main() {
	RegisterFlags()
	EnvOverride()
	flag.Parse()

	if *version {
		fmt.Println("Build Tag: ", buildTag)
		fmt.Println("Build Date:", buildDate)
		fmt.Println("Commit:    ", commitHash)
		os.Exit(0)
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := HandleFlags(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(di718b.ExUsage)
	}

	os.Exit(run())
}

func run() int {
	var hostname string
	switch {
	case *auto:
		h, err := di718b.Autodiscover()
		if err != nil {
			log.Error(err)
			return di718b.ExitCode(err)
		}
		hostname = h
	case flag.NArg() == 1:
		hostname = flag.Arg(0)
	default:
		flag.Usage()
		return di718b.ExUsage
	}

	conn, err := di718b.Dial(hostname, *port, di718b.Config{
		TimerScaler: *timerScaler,
		RateDivisor: *rateDivisor,
		ScanList:    *scanList,
		Channels:    *channels,
		FullScale:   *fullScale,
		Fudge:       *fudge,
	})
	if err != nil {
		log.Error(err)
		return di718b.ExitCode(err)
	}
	defer conn.Close()

	// Setup signal channel for interruption.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)

	// Setup time limit channel.
	tLimit := make(<-chan time.Time, 1)
	if *timeLimit != 0 {
		tLimit = time.After(*timeLimit)
	}

	for {
		// Exit on interrupt or time limit, otherwise receive.
		select {
		case sig := <-sigc:
			log.WithField("signal", sig).Info("shutting down")
			return di718b.ExOK
		case <-tLimit:
			log.Info("time limit reached")
			return di718b.ExOK
		default:
			frame, err := conn.Recv()
			if err != nil {
				// A termination signal unblocks Recv; report shutdown
				// rather than the receive error it caused.
				select {
				case sig := <-sigc:
					log.WithField("signal", sig).Info("shutting down")
					return di718b.ExOK
				default:
				}

				if di718b.ExitCode(err) == di718b.ExUnavailable {
					log.Error(errors.Wrap(err, "device gone"))
					return di718b.ExitCode(err)
				}

				// Per-frame faults are recoverable: drop the frame and
				// resume from the next socket read.
				log.Warn(errors.Wrap(err, "dropping frame"))
				continue
			}

			if err := encoder.Encode(frame); err != nil {
				log.Error(errors.Wrap(err, "encoding frame"))
				return di718b.ExIOErr
			}

			if *single {
				return di718b.ExOK
			}
		}
	}
}
