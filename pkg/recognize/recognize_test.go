package recognize

import (
	"context"
	"errors"
	"image/color"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

type failingRecognizer struct{}

func (failingRecognizer) Recognize(ctx context.Context, path string, opts OCROptions) (*OCRResult, error) {
	return nil, errors.New("engine crashed")
}

type fixedRecognizer struct {
	result *OCRResult
}

func (f fixedRecognizer) Recognize(ctx context.Context, path string, opts OCROptions) (*OCRResult, error) {
	return f.result, nil
}

type failingTranscriber struct{}

func (failingTranscriber) Transcribe(ctx context.Context, path string, opts TranscriptionOptions) (*TranscriptionResult, error) {
	return nil, errors.New("engine crashed")
}

func writeTestImage(t *testing.T) string {
	img := imaging.New(64, 64, color.White)
	path := filepath.Join(t.TempDir(), "plain.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}
	return path
}

func TestParseTesseractTSV(t *testing.T) {
	tsv := strings.Join([]string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t",
		"5\t1\t1\t1\t1\t1\t10\t10\t50\t20\t96.5\tHello",
		"5\t1\t1\t1\t1\t2\t70\t10\t60\t20\t88.0\tworld",
		"5\t1\t1\t1\t1\t3\t140\t10\t5\t20\t95.0\t ",
		"5\t1\t1\t1\t1\t4\t150\t10\t30\t20\t-1\tskip",
	}, "\n")

	words, text := parseTesseractTSV(tsv)

	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	if text != "Hello world" {
		t.Errorf("text = %q, want %q", text, "Hello world")
	}
	if math.Abs(words[0].Confidence-0.965) > 0.001 {
		t.Errorf("confidence = %f, want 0.965", words[0].Confidence)
	}
}

func TestProcessOCRFallsBackWhenEngineFails(t *testing.T) {
	path := writeTestImage(t)

	p := NewOCRProcessor(nil, failingRecognizer{})
	result := p.ProcessOCR(context.Background(), path, OCROptions{})

	if !result.Success {
		t.Fatal("fallback path should still produce a result")
	}
	if result.Engine != "heuristic" {
		t.Errorf("engine = %q, want heuristic", result.Engine)
	}
	if !strings.Contains(result.Text, "Heuristic analysis") {
		t.Errorf("fallback text = %q, want a labeled heuristic result", result.Text)
	}
	if result.Confidence > 0.5 {
		t.Errorf("fallback confidence = %f, want low", result.Confidence)
	}
}

func TestProcessOCRPassesEngineResultThrough(t *testing.T) {
	want := &OCRResult{Success: true, Text: "invoice total 42", Confidence: 0.93, Engine: "tesseract"}
	p := NewOCRProcessor(nil, fixedRecognizer{result: want})

	var milestones []int
	result := p.ProcessOCR(context.Background(), "any.png", OCROptions{
		OnProgress: func(percent int, message string) { milestones = append(milestones, percent) },
	})

	if result.Text != want.Text || result.Engine != "tesseract" {
		t.Errorf("result = %+v", result)
	}
	if len(milestones) == 0 || milestones[len(milestones)-1] != 100 {
		t.Errorf("milestones = %v, want a final 100", milestones)
	}
}

func TestHeuristicRecognizerPlainImage(t *testing.T) {
	path := writeTestImage(t)

	r := &HeuristicRecognizer{}
	result, err := r.Recognize(context.Background(), path, OCROptions{})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if strings.Contains(result.Text, "likely contains text") {
		t.Errorf("flat white image flagged as text: %q", result.Text)
	}
}

func TestEdgeDensityFlatVersusStriped(t *testing.T) {
	flat := imaging.New(64, 64, color.White)

	striped := imaging.New(64, 64, color.White)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x += 2 {
			striped.Set(x, y, color.Black)
		}
	}

	if d := edgeDensity(flat); d != 0 {
		t.Errorf("flat image edge density = %f, want 0", d)
	}
	if d := edgeDensity(striped); d < 0.1 {
		t.Errorf("striped image edge density = %f, want high", d)
	}
}

func TestProcessTranscriptionFallsBack(t *testing.T) {
	p := NewSpeechProcessor(nil, failingTranscriber{})
	result := p.ProcessTranscription(context.Background(), "talk.mp3", TranscriptionOptions{})

	if !result.Success {
		t.Fatal("fallback path should still produce a result")
	}
	if result.Engine != "heuristic" {
		t.Errorf("engine = %q, want heuristic", result.Engine)
	}
	if !strings.Contains(result.Transcript, "Heuristic analysis") {
		t.Errorf("transcript = %q, want a labeled heuristic result", result.Transcript)
	}
	if len(result.Segments) == 0 {
		t.Error("fallback result should carry at least one segment")
	}
}

func TestSpeechLikeness(t *testing.T) {
	silence := make([]float32, 16000)

	// 200 Hz tone at moderate amplitude, the kind of signal the voiced
	// band heuristics accept.
	voiced := make([]float32, 16000)
	for i := range voiced {
		voiced[i] = 0.3 * float32(math.Sin(2*math.Pi*200*float64(i)/16000))
	}

	if score := speechLikeness(silence); score > 0 {
		t.Errorf("silence score = %f, want 0", score)
	}
	if score := speechLikeness(voiced); score <= 0.5 {
		t.Errorf("voiced score = %f, want above 0.5", score)
	}
	if score := speechLikeness(nil); score != 0 {
		t.Errorf("empty input score = %f, want 0", score)
	}
}

func TestPlaceholderSegments(t *testing.T) {
	segments := placeholderSegments(75, "text")
	if len(segments) != 3 {
		t.Fatalf("got %d segments for 75s, want 3", len(segments))
	}
	if segments[2].Start != 60 || segments[2].End != 75 {
		t.Errorf("last segment = %+v, want 60..75", segments[2])
	}

	if segments := placeholderSegments(0, "text"); len(segments) != 1 {
		t.Errorf("zero duration should yield a single segment, got %d", len(segments))
	}
}

func TestSupportChecks(t *testing.T) {
	if !SupportsOCR("scan.png") || SupportsOCR("scan.mp3") {
		t.Error("SupportsOCR() misclassifies")
	}
	if !SupportsTranscription("talk.mp3") || !SupportsTranscription("talk.mp4") || SupportsTranscription("talk.png") {
		t.Error("SupportsTranscription() misclassifies")
	}
}
