// Package preprocess runs media files through a configurable pipeline of
// metadata probing, audio extraction, format conversion, and sample
// extraction, with per-milestone progress reporting and tolerance for
// partial failure.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNotVideoFile rejects audio extraction from non-video input.
	ErrNotVideoFile = errors.New("file is not a video")
	// ErrDecoderUnavailable means no audio decoding facility exists in
	// this environment.
	ErrDecoderUnavailable = errors.New("audio decoder not available")
)

// Metadata describes a media file. Fields are populated as far as the
// probe got; zero values mean unknown.
type Metadata struct {
	Duration   float64 `json:"duration"`
	Format     string  `json:"format"`
	Size       int64   `json:"size"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	Bitrate    int     `json:"bitrate,omitempty"`
	SampleRate int     `json:"sampleRate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
}

// Blob is an in-memory derived file with a declared content type.
type Blob struct {
	ContentType string
	Data        []byte
}

// Options selects the operations ProcessMediaFile runs.
type Options struct {
	ExtractMetadata  bool
	ExtractAudio     bool
	ConvertToFormat  string
	TargetSampleRate int
	// OnProgress receives (percent, message) at each milestone. Messages
	// are for display only.
	OnProgress ProgressFunc
}

// ProgressFunc receives pipeline progress milestones.
type ProgressFunc func(percent int, message string)

// Result aggregates what the pipeline produced. Success reflects only
// the mandatory requested steps; the best-effort sample extraction
// never flips it. Fields populated before a failing step survive in a
// failed result.
type Result struct {
	Success       bool
	Metadata      *Metadata
	ProcessedFile *Blob
	AudioData     []float32
	Error         string
}

// Preprocessor sequences media operations over one file at a time. The
// probing, extraction, and decoding engines are injected so a real
// transcoder can replace the fallbacks without touching callers.
type Preprocessor struct {
	logger    *zap.Logger
	prober    Prober
	extractor AudioExtractor
	decoder   PCMDecoder
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithProber replaces the metadata probe engine.
func WithProber(p Prober) Option {
	return func(pp *Preprocessor) { pp.prober = p }
}

// WithExtractor replaces the audio extraction engine.
func WithExtractor(e AudioExtractor) Option {
	return func(pp *Preprocessor) { pp.extractor = e }
}

// WithDecoder replaces the PCM decoding engine.
func WithDecoder(d PCMDecoder) Option {
	return func(pp *Preprocessor) { pp.decoder = d }
}

// NewPreprocessor builds a pipeline with ffmpeg/ffprobe engines when the
// binaries are present and documented fallbacks otherwise.
func NewPreprocessor(logger *zap.Logger, opts ...Option) *Preprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Preprocessor{
		logger:    logger,
		prober:    NewProber(logger),
		extractor: NewExtractor(logger),
		decoder:   NewFFmpegDecoder(logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExtractMetadata probes a media file. Corrupt or unsupported input
// fails with a metadata load error.
func (p *Preprocessor) ExtractMetadata(ctx context.Context, path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat media file: %w", err)
	}

	meta, err := p.prober.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load media metadata: %w", err)
	}

	meta.Size = info.Size()
	if meta.Format == "" {
		meta.Format = MIMEType(path)
	}
	return meta, nil
}

// ExtractAudioFromVideo produces a derived audio blob from a video
// file. Non-video input fails with ErrNotVideoFile.
func (p *Preprocessor) ExtractAudioFromVideo(ctx context.Context, path string, opts Options) (*Blob, error) {
	if !IsVideoFile(path) {
		return nil, ErrNotVideoFile
	}

	report(opts.OnProgress, 0, "Starting audio extraction...")
	report(opts.OnProgress, 10, "Initializing audio extraction...")

	blob, err := p.extractor.Extract(ctx, path, opts.TargetSampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to extract audio: %w", err)
	}

	report(opts.OnProgress, 50, "Processing audio track...")
	report(opts.OnProgress, 100, "Audio extraction complete")

	p.logger.Info("extracted audio from video",
		zap.String("path", path),
		zap.Int("bytes", len(blob.Data)),
	)
	return blob, nil
}

// ConvertAudioFormat decodes an audio file to raw PCM and re-encodes it
// into a canonical 16-bit mono WAV container. The target format is
// recorded but the container stays WAV until a real encoder is wired in.
func (p *Preprocessor) ConvertAudioFormat(ctx context.Context, path, targetFormat string, opts Options) (*Blob, error) {
	report(opts.OnProgress, 10, "Loading audio data...")

	pcm, err := p.decoder.Decode(ctx, path, opts.TargetSampleRate)
	if err != nil {
		return nil, err
	}

	report(opts.OnProgress, 50, fmt.Sprintf("Converting to %s...", targetFormat))

	data := EncodeWAV(pcm.Samples, pcm.SampleRate)

	report(opts.OnProgress, 100, "Conversion complete")

	p.logger.Info("converted audio format",
		zap.String("path", path),
		zap.String("target", targetFormat),
		zap.Int("samples", len(pcm.Samples)),
		zap.Int("sampleRate", pcm.SampleRate),
	)
	return &Blob{ContentType: "audio/wav", Data: data}, nil
}

// ExtractAudioData decodes a file and returns the first channel's raw
// samples for downstream analysis.
func (p *Preprocessor) ExtractAudioData(ctx context.Context, path string, opts Options) ([]float32, error) {
	report(opts.OnProgress, 10, "Loading audio data...")

	pcm, err := p.decoder.Decode(ctx, path, opts.TargetSampleRate)
	if err != nil {
		return nil, err
	}

	report(opts.OnProgress, 50, "Extracting audio samples...")
	report(opts.OnProgress, 100, "Audio data extraction complete")

	return pcm.Samples, nil
}

// ProcessMediaFile runs the requested operations in fixed order:
// metadata, audio extraction (video only), format conversion (audio
// only), then best-effort sample extraction. Mandatory step failures
// produce a failed result without aborting the caller's batch; the
// analysis step is swallowed and logged.
func (p *Preprocessor) ProcessMediaFile(ctx context.Context, path string, opts Options) Result {
	result := Result{Success: true}

	report(opts.OnProgress, 0, "Starting media processing...")

	if opts.ExtractMetadata {
		report(opts.OnProgress, 20, "Extracting metadata...")
		meta, err := p.ExtractMetadata(ctx, path)
		if err != nil {
			return result.failed(err)
		}
		result.Metadata = meta
	}

	if opts.ExtractAudio && IsVideoFile(path) {
		report(opts.OnProgress, 40, "Extracting audio from video...")
		blob, err := p.ExtractAudioFromVideo(ctx, path, Options{TargetSampleRate: opts.TargetSampleRate})
		if err != nil {
			return result.failed(err)
		}
		result.ProcessedFile = blob
	}

	if opts.ConvertToFormat != "" && IsAudioFile(path) {
		report(opts.OnProgress, 60, "Converting audio format...")
		blob, err := p.ConvertAudioFormat(ctx, path, opts.ConvertToFormat, Options{TargetSampleRate: opts.TargetSampleRate})
		if err != nil {
			return result.failed(err)
		}
		result.ProcessedFile = blob
	}

	if IsAudioFile(path) || IsVideoFile(path) {
		report(opts.OnProgress, 80, "Extracting audio data...")
		audioData, err := p.ExtractAudioData(ctx, path, Options{TargetSampleRate: opts.TargetSampleRate})
		if err != nil {
			// Sample extraction feeds optional analysis only.
			p.logger.Warn("failed to extract audio data", zap.String("path", path), zap.Error(err))
		} else {
			result.AudioData = audioData
		}
	}

	report(opts.OnProgress, 100, "Media processing complete")
	return result
}

// failed marks the result as a mandatory-step failure while keeping
// whatever earlier steps already produced.
func (r Result) failed(err error) Result {
	r.Success = false
	r.Error = err.Error()
	return r
}

func report(fn ProgressFunc, percent int, message string) {
	if fn != nil {
		fn(percent, message)
	}
}

// Media type detection mirrors the extension lists the upload UI accepts.
var videoExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".ogv": true, ".avi": true,
	".mov": true, ".wmv": true, ".mkv": true,
}

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".ogg": true, ".m4a": true,
	".aac": true, ".flac": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
}

// IsVideoFile reports whether the path looks like a video file.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsAudioFile reports whether the path looks like an audio file.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsImageFile reports whether the path looks like an image file.
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsMediaFile reports whether the path is audio or video.
func IsMediaFile(path string) bool {
	return IsVideoFile(path) || IsAudioFile(path)
}

// MIMEType guesses a MIME type from the file extension.
func MIMEType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch {
	case ext == "":
		return "application/octet-stream"
	case videoExtensions["."+ext]:
		return "video/" + ext
	case audioExtensions["."+ext]:
		return "audio/" + ext
	case imageExtensions["."+ext]:
		return "image/" + ext
	default:
		return "application/octet-stream"
	}
}
