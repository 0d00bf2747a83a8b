/*
DATAQ is a TCP stream client for DATAQ DI-718B-E(S) laboratory data
acquisition systems. It may also work with the DI-718Bx 16-channel units or
the DI-710 series.

The client connects to the unit, stops any stream left over from a previous
session, configures the scan, starts streaming, and prints one line per
sample frame until interrupted:

	1466220941.037803 0.005 -0.002 0.131 19.987 -0.008 0.644

Usage:

	dataq [flags] HOST
	dataq [flags] -auto

where HOST is the hostname or IP address of the DAQ unit.

Command-line Flags:

	-port=10001

TCP port the device listens on.

	-channels=6

Number of channels to scan. The device scans the first N entries of the
scan list; must not exceed 32.

	-scanlist="E000E001E002E003E004E005E006E007"

Hex-coded scan list naming which physical channels and modes to sample.
Entry order sets output channel order.

	-timerscaler=2
	-ratedivisor=0

Device clock-division parameters controlling the sample rate. The timer
scaler divides the main 14400 Hz timer; the rate divisor further divides
the output rate.

	-fullscale=20.0

Engineering-unit full scale. Depends on the installed input amplifier
module.

	-fudge=1.0

Empirical calibration multiplier. Converted values don't seem to quite
agree with WinDAQ; try 1.018 here.

	-auto=false

Autodiscover the device instead of naming a host. Currently unimplemented;
prints operator guidance and exits unavailable.

	-duration=0

Time to capture for, 0 for infinite.

	-format="plain"

Frame output format: plain, csv or json. Plain is one line per frame: unix
seconds and microseconds of arrival, then one 3-decimal value per channel.
CSV output begins with a header row naming the columns. JSON output is one
object per line.

	-single=false

One shot execution: receive exactly one frame and exit.

	-v=false

Log acknowledged commands and receiver state.

Every flag may also be set by an environment variable named DATAQ_ followed
by the flag name upper-cased, e.g. DATAQ_CHANNELS=8.

Exit status follows sysexits.h: 64 usage, 65 bad configuration, 68 host
resolution failed, 69 device unavailable, 74 I/O error, 76 protocol error.

Protocol reverse-engineered from WinDAQ via Wireshark, with help from
http://www.ultimaserial.com/hack710.html
*/
package main
