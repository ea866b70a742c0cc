package preprocess

import (
	"encoding/binary"
	"testing"
)

func TestEncodeWAVLayout(t *testing.T) {
	tests := []struct {
		name        string
		sampleCount int
		sampleRate  int
	}{
		{"empty", 0, 44100},
		{"one second at 16k", 16000, 16000},
		{"odd count", 1234, 44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeWAV(make([]float32, tt.sampleCount), tt.sampleRate)

			wantLen := 44 + 2*tt.sampleCount
			if len(data) != wantLen {
				t.Fatalf("EncodeWAV() length = %d, want %d", len(data), wantLen)
			}

			if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
				t.Error("missing RIFF/WAVE markers")
			}
			if riffSize := binary.LittleEndian.Uint32(data[4:8]); riffSize != uint32(36+2*tt.sampleCount) {
				t.Errorf("riff size = %d, want %d", riffSize, 36+2*tt.sampleCount)
			}
			if channels := binary.LittleEndian.Uint16(data[22:24]); channels != 1 {
				t.Errorf("channels = %d, want mono", channels)
			}
			if rate := binary.LittleEndian.Uint32(data[24:28]); rate != uint32(tt.sampleRate) {
				t.Errorf("sample rate = %d, want %d", rate, tt.sampleRate)
			}
			if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
				t.Errorf("bits per sample = %d, want 16", bits)
			}
			if dataLen := binary.LittleEndian.Uint32(data[40:44]); dataLen != uint32(2*tt.sampleCount) {
				t.Errorf("data chunk size = %d, want %d", dataLen, 2*tt.sampleCount)
			}
		})
	}
}

func TestEncodeWAVClampsSamples(t *testing.T) {
	data := EncodeWAV([]float32{2.0, -2.0, 0}, 8000)
	samples := data[44:]

	if v := int16(binary.LittleEndian.Uint16(samples[0:2])); v != 32767 {
		t.Errorf("over-range sample = %d, want 32767", v)
	}
	if v := int16(binary.LittleEndian.Uint16(samples[2:4])); v != -32768 {
		t.Errorf("under-range sample = %d, want -32768", v)
	}
	if v := int16(binary.LittleEndian.Uint16(samples[4:6])); v != 0 {
		t.Errorf("zero sample = %d, want 0", v)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	input := []float32{0, 0.25, -0.25, 0.99, -0.99}
	encoded := EncodeWAV(input, 44100)

	samples, sampleRate, err := DecodeWAVSamples(encoded)
	if err != nil {
		t.Fatalf("DecodeWAVSamples() error = %v", err)
	}
	if sampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", sampleRate)
	}
	if len(samples) != len(input) {
		t.Fatalf("got %d samples, want %d", len(samples), len(input))
	}

	for i := range input {
		diff := samples[i] - input[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.001 {
			t.Errorf("sample %d = %f, want about %f", i, samples[i], input[i])
		}
	}
}

func TestDecodeWAVSamplesRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeWAVSamples([]byte("not a wav file")); err == nil {
		t.Error("DecodeWAVSamples() should reject non-WAV input")
	}
}
