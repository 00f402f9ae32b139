package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// readWAVHeader consumes the RIFF container up to the start of the data
// chunk and returns the sample rate. Only 16-bit mono PCM is accepted,
// matching what the transcription service expects on the wire.
func readWAVHeader(r io.Reader) (sampleRate int, err error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return 0, fmt.Errorf("wav header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a wav file")
	}

	var (
		format   uint16
		channels uint16
		rate     uint32
		bits     uint16
		haveFmt  bool
	)

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return 0, fmt.Errorf("wav chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return 0, fmt.Errorf("wav fmt chunk too short")
			}
			fmtData := make([]byte, size)
			if _, err := io.ReadFull(r, fmtData); err != nil {
				return 0, fmt.Errorf("wav fmt chunk: %w", err)
			}
			format = binary.LittleEndian.Uint16(fmtData[0:2])
			channels = binary.LittleEndian.Uint16(fmtData[2:4])
			rate = binary.LittleEndian.Uint32(fmtData[4:8])
			bits = binary.LittleEndian.Uint16(fmtData[14:16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return 0, fmt.Errorf("wav data chunk before fmt chunk")
			}
			if format != 1 {
				return 0, fmt.Errorf("wav format %d unsupported, need PCM", format)
			}
			if channels != 1 {
				return 0, fmt.Errorf("wav has %d channels, need mono", channels)
			}
			if bits != 16 {
				return 0, fmt.Errorf("wav is %d-bit, need 16-bit", bits)
			}
			return int(rate), nil
		default:
			// Skip ancillary chunks (LIST, INFO and friends).
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return 0, fmt.Errorf("skipping wav chunk %q: %w", id, err)
			}
		}
	}
}
