package preprocess

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

const defaultSampleRate = 44100

// AudioExtractor pulls the audio track out of a video file. Engines are
// swappable so a real transcoder can replace the fallback without any
// caller changes.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath string, sampleRate int) (*Blob, error)
}

// NewExtractor returns the ffmpeg extractor when the binary is in PATH,
// otherwise the documented fallback.
func NewExtractor(logger *zap.Logger) AudioExtractor {
	if _, err := exec.LookPath("ffmpeg"); err == nil {
		return &FFmpegExtractor{logger: logger}
	}
	logger.Warn("ffmpeg not found in PATH, audio extraction will use the fallback engine")
	return &FallbackExtractor{logger: logger}
}

// FFmpegExtractor demuxes the audio track with ffmpeg and re-encodes it
// as 16-bit PCM WAV.
type FFmpegExtractor struct {
	logger *zap.Logger
}

func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath string, sampleRate int) (*Blob, error) {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}

	tempDir, err := os.MkdirTemp("", "boxkit-audio-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	outputPath := filepath.Join(tempDir, "audio.wav")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, output: %s", err, string(output))
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted audio: %w", err)
	}

	e.logger.Debug("extracted audio track",
		zap.String("video", videoPath),
		zap.Int("bytes", len(data)),
	)
	return &Blob{ContentType: "audio/wav", Data: data}, nil
}

// FallbackExtractor produces a placeholder silent WAV when no real
// demuxer is available. The output is a valid container so downstream
// steps keep working, but it carries no audio from the source.
type FallbackExtractor struct {
	logger *zap.Logger
}

func (e *FallbackExtractor) Extract(ctx context.Context, videoPath string, sampleRate int) (*Blob, error) {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}

	e.logger.Warn("using fallback audio extraction, output contains no source audio",
		zap.String("video", videoPath),
	)

	// One second of silence.
	return &Blob{
		ContentType: "audio/wav",
		Data:        EncodeWAV(make([]float32, sampleRate), sampleRate),
	}, nil
}
