package preprocess

import (
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// PCMData is decoded audio: the first channel's samples in [-1,1].
type PCMData struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// PCMDecoder decodes compressed audio into raw PCM samples.
type PCMDecoder interface {
	Decode(ctx context.Context, path string, sampleRate int) (*PCMData, error)
}

// FFmpegDecoder decodes through ffmpeg into signed 16-bit little-endian
// mono PCM. Decode fails with ErrDecoderUnavailable when the binary is
// missing, mirroring an environment with no audio decoding facility.
type FFmpegDecoder struct {
	logger *zap.Logger
}

// NewFFmpegDecoder creates the stock decoder.
func NewFFmpegDecoder(logger *zap.Logger) *FFmpegDecoder {
	return &FFmpegDecoder{logger: logger}
}

func (d *FFmpegDecoder) Decode(ctx context.Context, path string, sampleRate int) (*PCMData, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, ErrDecoderUnavailable
	}
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"pipe:1",
	)
	raw, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
		if v < 0 {
			samples[i] = float32(v) / 0x8000
		} else {
			samples[i] = float32(v) / 0x7FFF
		}
	}

	d.logger.Debug("decoded audio to PCM",
		zap.String("path", path),
		zap.Int("samples", len(samples)),
	)
	return &PCMData{Samples: samples, SampleRate: sampleRate, Channels: 1}, nil
}
