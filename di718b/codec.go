package di718b

// Each 16-bit stream word packs a 14-bit unsigned measurement into bits
// [15:9] and [7:1]. Bits 8 and 0 are sync flags used to detect channel
// alignment: channel 0 carries the pattern 0x0100, every other channel
// carries 0x0101. The device never re-synchronizes mid-word, so a sync
// mismatch condemns the whole frame.
const (
	syncMask  = 0x0101
	syncFirst = 0x0100
	syncRest  = 0x0101

	// midScale is the raw value representing zero engineering units.
	midScale = 1 << 13
)

// encodeCommand renders an ASCII command for the wire. The leading null
// byte is the device's out-of-band command marker.
func encodeCommand(text string) []byte {
	return append([]byte{0}, text...)
}

// DecodeWord validates a stream word's sync flags and extracts its 14-bit
// measurement. channel is the word's position within its frame.
func DecodeWord(word uint16, channel int) (uint16, error) {
	lsbs := word & syncMask
	if (channel == 0 && lsbs != syncFirst) || (channel != 0 && lsbs != syncRest) {
		return 0, &SyncError{Channel: channel, Word: word}
	}

	return (word&0xFE00)>>2 | (word&0x00FE)>>1, nil
}

// Calibrate converts a raw 14-bit measurement to engineering units using
// an affine transform centered at mid-scale.
func Calibrate(v uint16, fullscale, fudge float64) float64 {
	return fudge * fullscale * (float64(v)/midScale - 1)
}
