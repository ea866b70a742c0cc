package preprocess

import (
	"encoding/binary"
	"errors"
)

// wavHeaderSize is the canonical RIFF/fmt/data header length.
const wavHeaderSize = 44

// EncodeWAV wraps raw samples in a minimal canonical WAV container:
// RIFF header, single fmt chunk, single data chunk, mono 16-bit signed
// PCM. The output length is always 44 + 2*len(samples) bytes.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, wavHeaderSize+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                   // bits per sample

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	offset := wavHeaderSize
	for _, sample := range samples {
		binary.LittleEndian.PutUint16(buf[offset:offset+2], uint16(clampSample(sample)))
		offset += 2
	}

	return buf
}

// clampSample converts a [-1,1] float sample to 16-bit signed PCM.
func clampSample(sample float32) int16 {
	if sample > 1 {
		sample = 1
	}
	if sample < -1 {
		sample = -1
	}
	if sample < 0 {
		return int16(sample * 0x8000)
	}
	return int16(sample * 0x7FFF)
}

// DecodeWAVSamples reads mono 16-bit PCM samples back out of a buffer
// produced by EncodeWAV. Used by analysis paths and tests.
func DecodeWAVSamples(data []byte) ([]float32, int, error) {
	if len(data) < wavHeaderSize {
		return nil, 0, errors.New("buffer too short for a WAV header")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("missing RIFF/WAVE markers")
	}
	sampleRate := int(binary.LittleEndian.Uint32(data[24:28]))
	body := data[wavHeaderSize:]
	samples := make([]float32, len(body)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(body[i*2 : i*2+2]))
		if v < 0 {
			samples[i] = float32(v) / 0x8000
		} else {
			samples[i] = float32(v) / 0x7FFF
		}
	}
	return samples, sampleRate, nil
}
