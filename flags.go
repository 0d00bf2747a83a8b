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
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/bemasher/dataq/csv"
	"github.com/bemasher/dataq/di718b"
)

var port = flag.Int("port", di718b.DefaultPort, "TCP port the device listens on")

var channels = flag.Int("channels", 6, "number of channels to scan, first N entries of the scan list")
var scanList = flag.String("scanlist", "E000E001E002E003E004E005E006E007", "hex-coded scan list, order sets channel order")
var timerScaler = flag.Int("timerscaler", 2, "division from the main 14400 Hz timer")
var rateDivisor = flag.Int("ratedivisor", 0, "further division on the output rate")

var fullScale = flag.Float64("fullscale", 20.0, "engineering-unit full scale of the installed amplifier module")
var fudge = flag.Float64("fudge", 1.0, "empirical calibration multiplier, try 1.018 if values disagree with WinDAQ")

var auto = flag.Bool("auto", false, "autodiscover the device instead of naming a host")
var timeLimit = flag.Duration("duration", 0, "time to capture for, 0 for infinite, ex. 1h5m10s")
var single = flag.Bool("single", false, "one shot execution, receive exactly one frame and exit")

var encoder Encoder
var format = flag.String("format", "plain", "frame output format: plain, csv or json")

var verbose = flag.Bool("v", false, "log acknowledged commands and receiver state")
var version = flag.Bool("version", false, "display build date and commit hash")

func RegisterFlags() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "    %s [flags] HOST\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "    %s [flags] -auto\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "where HOST is the hostname or IP address of the DAQ unit.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
}

func EnvOverride() {
	flag.VisitAll(func(f *flag.Flag) {
		envName := "DATAQ_" + strings.ToUpper(f.Name)
		flagValue := os.Getenv(envName)
		if flagValue != "" {
			if err := flag.Set(f.Name, flagValue); err != nil {
				log.Printf(
					"Environment variable %q failed to override flag %q with value %q: %q\n",
					envName, f.Name, flagValue, err,
				)
			} else {
				log.Printf("Environment variable %q overrides flag %q with %q\n", envName, f.Name, flagValue)
			}
		}
	})
}

func HandleFlags() error {
	if *scanList == "" {
		return errors.New("scan list must not be empty")
	}
	for _, r := range *scanList {
		if !strings.ContainsRune("0123456789ABCDEFabcdef", r) {
			return errors.Errorf("scan list contains non-hex character %q", r)
		}
	}

	*format = strings.ToLower(*format)
	switch *format {
	case "plain":
		encoder = PlainEncoder{}
	case "csv":
		encoder = csv.NewEncoder(os.Stdout)
	case "json":
		encoder = json.NewEncoder(os.Stdout)
	default:
		return errors.Errorf("invalid frame output format: %q", *format)
	}

	return nil
}

// CSV and JSON encoders both implement this interface so we can simplify
// frame output formatting.
type Encoder interface {
	Encode(interface{}) error
}

type PlainEncoder struct{}

func (pe PlainEncoder) Encode(msg interface{}) (err error) {
	_, err = fmt.Println(msg)
	return
}
