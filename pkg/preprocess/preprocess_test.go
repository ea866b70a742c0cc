package preprocess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

type stubProber struct {
	meta *Metadata
	err  error
}

func (s stubProber) Probe(ctx context.Context, path string) (*Metadata, error) {
	return s.meta, s.err
}

type stubExtractor struct {
	blob *Blob
	err  error
}

func (s stubExtractor) Extract(ctx context.Context, videoPath string, sampleRate int) (*Blob, error) {
	return s.blob, s.err
}

type stubDecoder struct {
	pcm *PCMData
	err error
}

func (s stubDecoder) Decode(ctx context.Context, path string, sampleRate int) (*PCMData, error) {
	return s.pcm, s.err
}

func writeTempMedia(t *testing.T, name string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("media bytes"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestProcessMediaFileVideo(t *testing.T) {
	path := writeTempMedia(t, "clip.mp4")

	wav := EncodeWAV([]float32{0.1, 0.2}, 16000)
	pp := NewPreprocessor(nil,
		WithProber(stubProber{meta: &Metadata{Duration: 12.5, Width: 640, Height: 480}}),
		WithExtractor(stubExtractor{blob: &Blob{ContentType: "audio/wav", Data: wav}}),
		WithDecoder(stubDecoder{pcm: &PCMData{Samples: []float32{0.1, 0.2}, SampleRate: 16000, Channels: 1}}),
	)

	var milestones []int
	result := pp.ProcessMediaFile(context.Background(), path, Options{
		ExtractMetadata: true,
		ExtractAudio:    true,
		OnProgress:      func(percent int, message string) { milestones = append(milestones, percent) },
	})

	if !result.Success {
		t.Fatalf("ProcessMediaFile() failed: %s", result.Error)
	}
	if result.Metadata == nil || result.Metadata.Duration != 12.5 {
		t.Errorf("metadata = %+v", result.Metadata)
	}
	if result.ProcessedFile == nil || result.ProcessedFile.ContentType != "audio/wav" {
		t.Errorf("processed file = %+v", result.ProcessedFile)
	}
	if len(result.AudioData) != 2 {
		t.Errorf("audio data length = %d, want 2", len(result.AudioData))
	}

	want := map[int]bool{0: true, 20: true, 40: true, 80: true, 100: true}
	for _, m := range milestones {
		delete(want, m)
	}
	if len(want) != 0 {
		t.Errorf("missing progress milestones %v in %v", want, milestones)
	}
}

func TestProcessMediaFileAudioConversion(t *testing.T) {
	path := writeTempMedia(t, "voice.mp3")

	pp := NewPreprocessor(nil,
		WithProber(stubProber{meta: &Metadata{Duration: 3, SampleRate: 44100, Channels: 2}}),
		WithDecoder(stubDecoder{pcm: &PCMData{Samples: []float32{0.5, -0.5}, SampleRate: 44100, Channels: 1}}),
	)

	result := pp.ProcessMediaFile(context.Background(), path, Options{
		ExtractMetadata: true,
		ConvertToFormat: "wav",
	})

	if !result.Success {
		t.Fatalf("ProcessMediaFile() failed: %s", result.Error)
	}
	if result.ProcessedFile == nil {
		t.Fatal("conversion produced no output")
	}
	if result.ProcessedFile.ContentType != "audio/wav" {
		t.Errorf("content type = %q, want audio/wav", result.ProcessedFile.ContentType)
	}
	// 44 byte header plus two 16-bit samples.
	if len(result.ProcessedFile.Data) != 48 {
		t.Errorf("wav length = %d, want 48", len(result.ProcessedFile.Data))
	}
}

func TestProcessMediaFileMetadataFailureIsTerminal(t *testing.T) {
	path := writeTempMedia(t, "broken.mp4")

	pp := NewPreprocessor(nil,
		WithProber(stubProber{err: errors.New("corrupt container")}),
	)

	result := pp.ProcessMediaFile(context.Background(), path, Options{ExtractMetadata: true})
	if result.Success {
		t.Fatal("metadata failure must fail the result")
	}
	if result.Error == "" {
		t.Error("failed result should carry the error text")
	}
}

func TestProcessMediaFileKeepsMetadataOnExtractionFailure(t *testing.T) {
	path := writeTempMedia(t, "clip.mp4")

	pp := NewPreprocessor(nil,
		WithProber(stubProber{meta: &Metadata{Duration: 4}}),
		WithExtractor(stubExtractor{err: errors.New("no audio stream")}),
	)

	result := pp.ProcessMediaFile(context.Background(), path, Options{
		ExtractMetadata: true,
		ExtractAudio:    true,
	})

	if result.Success {
		t.Fatal("extraction failure must fail the result")
	}
	if result.Metadata == nil || result.Metadata.Duration != 4 {
		t.Errorf("metadata from the completed step was dropped: %+v", result.Metadata)
	}
	if result.Error == "" {
		t.Error("failed result should carry the error text")
	}
}

func TestProcessMediaFileAudioDataBestEffort(t *testing.T) {
	path := writeTempMedia(t, "clip.mp4")

	pp := NewPreprocessor(nil,
		WithProber(stubProber{meta: &Metadata{Duration: 1}}),
		WithExtractor(stubExtractor{blob: &Blob{ContentType: "audio/wav", Data: EncodeWAV(nil, 16000)}}),
		WithDecoder(stubDecoder{err: ErrDecoderUnavailable}),
	)

	result := pp.ProcessMediaFile(context.Background(), path, Options{
		ExtractMetadata: true,
		ExtractAudio:    true,
	})

	if !result.Success {
		t.Fatalf("sample extraction failure must not fail the pipeline: %s", result.Error)
	}
	if result.AudioData != nil {
		t.Error("audio data should be empty when the decoder is unavailable")
	}
	if result.ProcessedFile == nil {
		t.Error("extraction output should survive a failed analysis step")
	}
}

func TestExtractAudioFromVideoRejectsNonVideo(t *testing.T) {
	path := writeTempMedia(t, "song.mp3")

	pp := NewPreprocessor(nil)
	_, err := pp.ExtractAudioFromVideo(context.Background(), path, Options{})
	if !errors.Is(err, ErrNotVideoFile) {
		t.Errorf("ExtractAudioFromVideo() error = %v, want ErrNotVideoFile", err)
	}
}

func TestFallbackExtractorProducesValidSilence(t *testing.T) {
	e := &FallbackExtractor{logger: zap.NewNop()}
	blob, err := e.Extract(context.Background(), "whatever.mp4", 8000)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	samples, sampleRate, err := DecodeWAVSamples(blob.Data)
	if err != nil {
		t.Fatalf("fallback output is not a valid WAV: %v", err)
	}
	if sampleRate != 8000 {
		t.Errorf("sample rate = %d, want 8000", sampleRate)
	}
	if len(samples) != 8000 {
		t.Errorf("got %d samples, want one second of silence", len(samples))
	}
	for i, s := range samples {
		if s != 0 {
			t.Fatalf("sample %d = %f, want silence", i, s)
		}
	}
}

func TestBasicProberRejectsUnknownType(t *testing.T) {
	p := &BasicProber{}
	if _, err := p.Probe(context.Background(), "notes.txt"); err == nil {
		t.Error("Probe() should reject a non-media file")
	}
	if meta, err := p.Probe(context.Background(), "photo.jpg"); err != nil || meta.Format == "" {
		t.Errorf("Probe() on image = %+v, %v", meta, err)
	}
}

func TestMediaTypeDetection(t *testing.T) {
	tests := []struct {
		path            string
		video, audio, image bool
	}{
		{"a.mp4", true, false, false},
		{"a.MOV", true, false, false},
		{"a.mp3", false, true, false},
		{"a.wav", false, true, false},
		{"a.png", false, false, true},
		{"a.txt", false, false, false},
	}

	for _, tt := range tests {
		if got := IsVideoFile(tt.path); got != tt.video {
			t.Errorf("IsVideoFile(%q) = %v, want %v", tt.path, got, tt.video)
		}
		if got := IsAudioFile(tt.path); got != tt.audio {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.audio)
		}
		if got := IsImageFile(tt.path); got != tt.image {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.path, got, tt.image)
		}
	}
}
