package recognize

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/boxkit/cli/pkg/preprocess"
)

// Segment is one timed span of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the outcome of transcribing one audio or
// video file.
type TranscriptionResult struct {
	Success    bool      `json:"success"`
	Transcript string    `json:"transcript,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Segments   []Segment `json:"segments,omitempty"`
	Engine     string    `json:"engine"`
}

// TranscriptionOptions configures a transcription run.
type TranscriptionOptions struct {
	Language   string
	OnProgress preprocess.ProgressFunc
}

// SpeechTranscriber is the speech-to-text capability boundary.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, path string, opts TranscriptionOptions) (*TranscriptionResult, error)
}

// SpeechProcessor runs transcription with engine fallback.
type SpeechProcessor struct {
	logger      *zap.Logger
	transcriber SpeechTranscriber
	fallback    SpeechTranscriber
}

// NewSpeechProcessor builds a processor with the whisper engine when
// available and the heuristic fallback otherwise. A custom transcriber
// can be injected for testing or to wire a different engine.
func NewSpeechProcessor(logger *zap.Logger, transcriber SpeechTranscriber) *SpeechProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := &HeuristicTranscriber{
		logger:  logger,
		decoder: preprocess.NewFFmpegDecoder(logger),
		prober:  preprocess.NewProber(logger),
	}
	if transcriber == nil {
		if _, err := exec.LookPath("whisper"); err == nil {
			transcriber = &WhisperTranscriber{logger: logger}
		} else {
			logger.Warn("whisper not found in PATH, transcription will use the heuristic fallback")
			transcriber = fallback
		}
	}
	return &SpeechProcessor{logger: logger, transcriber: transcriber, fallback: fallback}
}

// ProcessTranscription transcribes an audio or video file. Engine
// failures degrade to the heuristic path instead of surfacing an error.
func (p *SpeechProcessor) ProcessTranscription(ctx context.Context, path string, opts TranscriptionOptions) *TranscriptionResult {
	report(opts.OnProgress, 10, "Initializing transcription...")

	result, err := p.transcriber.Transcribe(ctx, path, opts)
	if err != nil {
		p.logger.Warn("transcription engine failed, degrading to heuristic analysis",
			zap.String("path", path),
			zap.Error(err),
		)
		result, err = p.fallback.Transcribe(ctx, path, opts)
		if err != nil {
			return &TranscriptionResult{Success: false, Engine: "none"}
		}
	}

	report(opts.OnProgress, 100, "Transcription complete")
	return result
}

// SupportsTranscription reports whether a file carries an audio track
// worth transcribing.
func SupportsTranscription(path string) bool {
	return preprocess.IsAudioFile(path) || preprocess.IsVideoFile(path)
}

// WhisperTranscriber shells out to the whisper CLI and reads the text
// output it leaves next to the input.
type WhisperTranscriber struct {
	logger *zap.Logger
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, path string, opts TranscriptionOptions) (*TranscriptionResult, error) {
	outDir, err := os.MkdirTemp("", "boxkit-transcript-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{path, "--output_format", "txt", "--output_dir", outDir}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}

	cmd := exec.CommandContext(ctx, "whisper", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisper failed: %w, output: %s", err, string(output))
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	raw, err := os.ReadFile(filepath.Join(outDir, base+".txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	transcript := strings.TrimSpace(string(raw))
	t.logger.Debug("transcribed audio",
		zap.String("path", path),
		zap.Int("chars", len(transcript)),
	)

	return &TranscriptionResult{
		Success:    true,
		Transcript: transcript,
		Confidence: 0.9,
		Engine:     "whisper",
	}, nil
}

// HeuristicTranscriber cannot recover words. It decodes the audio,
// measures whether the signal looks like speech and returns a labeled
// placeholder transcript with low confidence.
type HeuristicTranscriber struct {
	logger  *zap.Logger
	decoder preprocess.PCMDecoder
	prober  preprocess.Prober
}

func (t *HeuristicTranscriber) Transcribe(ctx context.Context, path string, opts TranscriptionOptions) (*TranscriptionResult, error) {
	var duration float64
	if meta, err := t.prober.Probe(ctx, path); err == nil {
		duration = meta.Duration
	}

	likelySpeech := false
	pcm, err := t.decoder.Decode(ctx, path, 16000)
	if err == nil {
		likelySpeech = speechLikeness(pcm.Samples) > 0.5
		if duration == 0 && pcm.SampleRate > 0 {
			duration = float64(len(pcm.Samples)) / float64(pcm.SampleRate)
		}
	} else {
		t.logger.Warn("heuristic transcription could not decode audio",
			zap.String("path", path),
			zap.Error(err),
		)
	}

	var transcript string
	if likelySpeech {
		transcript = fmt.Sprintf("[Heuristic analysis: audio likely contains speech (%.0fs). Install whisper for real transcription.]", duration)
	} else {
		transcript = fmt.Sprintf("[Heuristic analysis: no clear speech detected (%.0fs of audio).]", duration)
	}

	return &TranscriptionResult{
		Success:    true,
		Transcript: transcript,
		Confidence: 0.2,
		Segments:   placeholderSegments(duration, transcript),
		Engine:     "heuristic",
	}, nil
}

// speechLikeness scores the signal between 0 and 1. Speech shows
// moderate energy with a zero-crossing rate in the voiced band, unlike
// silence, tone or broadband noise.
func speechLikeness(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var energy float64
	var crossings int
	for i, s := range samples {
		energy += float64(s) * float64(s)
		if i > 0 && (s >= 0) != (samples[i-1] >= 0) {
			crossings++
		}
	}

	rms := math.Sqrt(energy / float64(len(samples)))
	zcr := float64(crossings) / float64(len(samples))

	score := 0.0
	if rms > 0.01 && rms < 0.5 {
		score += 0.5
	}
	if zcr > 0.01 && zcr < 0.15 {
		score += 0.5
	}
	return score
}

// placeholderSegments splits a placeholder transcript over the audio
// duration in 30 second spans.
func placeholderSegments(duration float64, transcript string) []Segment {
	if duration <= 0 {
		return []Segment{{Start: 0, End: 0, Text: transcript}}
	}

	const span = 30.0
	var segments []Segment
	for start := 0.0; start < duration; start += span {
		end := start + span
		if end > duration {
			end = duration
		}
		segments = append(segments, Segment{Start: start, End: end, Text: transcript})
	}
	return segments
}
