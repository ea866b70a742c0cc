// Package recognize wraps text recognition and speech transcription
// engines behind capability interfaces. Engines may be absent from the
// host environment; every entry point degrades to a clearly labeled
// heuristic result instead of failing.
package recognize

import (
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/boxkit/cli/pkg/preprocess"
)

// Word is one recognized token with its confidence.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// OCRResult is the outcome of text recognition over one image.
type OCRResult struct {
	Success    bool    `json:"success"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Words      []Word  `json:"words,omitempty"`
	// Engine names the backend that produced the result.
	Engine string `json:"engine"`
}

// OCROptions configures a recognition run.
type OCROptions struct {
	Language   string
	OnProgress preprocess.ProgressFunc
}

// TextRecognizer is the OCR capability boundary.
type TextRecognizer interface {
	Recognize(ctx context.Context, path string, opts OCROptions) (*OCRResult, error)
}

// OCRProcessor runs OCR with engine fallback. Construct one per caller;
// there is no shared default instance.
type OCRProcessor struct {
	logger     *zap.Logger
	recognizer TextRecognizer
	fallback   TextRecognizer
}

// NewOCRProcessor builds a processor with the tesseract engine when
// available and the heuristic fallback otherwise. A custom recognizer
// can be injected for testing or to wire a different engine.
func NewOCRProcessor(logger *zap.Logger, recognizer TextRecognizer) *OCRProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := &HeuristicRecognizer{logger: logger}
	if recognizer == nil {
		if _, err := exec.LookPath("tesseract"); err == nil {
			recognizer = &TesseractRecognizer{logger: logger}
		} else {
			logger.Warn("tesseract not found in PATH, OCR will use the heuristic fallback")
			recognizer = fallback
		}
	}
	return &OCRProcessor{logger: logger, recognizer: recognizer, fallback: fallback}
}

// ProcessOCR recognizes text in an image. Engine failures degrade to
// the heuristic path; the returned result is never accompanied by an
// error from the engine itself.
func (p *OCRProcessor) ProcessOCR(ctx context.Context, path string, opts OCROptions) *OCRResult {
	report(opts.OnProgress, 10, "Initializing text recognition...")

	result, err := p.recognizer.Recognize(ctx, path, opts)
	if err != nil {
		p.logger.Warn("text recognition engine failed, degrading to heuristic analysis",
			zap.String("path", path),
			zap.Error(err),
		)
		result, err = p.fallback.Recognize(ctx, path, opts)
		if err != nil {
			return &OCRResult{Success: false, Engine: "none"}
		}
	}

	report(opts.OnProgress, 100, "Text recognition complete")
	return result
}

// SupportsOCR reports whether a file is a candidate for recognition.
func SupportsOCR(path string) bool {
	return preprocess.IsImageFile(path)
}

// TesseractRecognizer shells out to the tesseract CLI and parses its
// TSV output for per-word confidences.
type TesseractRecognizer struct {
	logger *zap.Logger
}

func (r *TesseractRecognizer) Recognize(ctx context.Context, path string, opts OCROptions) (*OCRResult, error) {
	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}

	cmd := exec.CommandContext(ctx, "tesseract", path, "stdout", "-l", lang, "tsv")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("tesseract failed: %w", err)
	}

	words, text := parseTesseractTSV(string(output))

	var confidence float64
	for _, w := range words {
		confidence += w.Confidence
	}
	if len(words) > 0 {
		confidence /= float64(len(words))
	}

	r.logger.Debug("recognized text",
		zap.String("path", path),
		zap.Int("words", len(words)),
	)

	return &OCRResult{
		Success:    true,
		Text:       text,
		Confidence: confidence,
		Words:      words,
		Engine:     "tesseract",
	}, nil
}

// parseTesseractTSV extracts word rows (level 5) from tesseract TSV.
func parseTesseractTSV(output string) ([]Word, string) {
	var words []Word
	var parts []string

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 12 || fields[0] != "5" {
			continue
		}
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		words = append(words, Word{Text: text, Confidence: conf / 100})
		parts = append(parts, text)
	}

	return words, strings.Join(parts, " ")
}

// HeuristicRecognizer estimates whether an image contains text from its
// luminance structure. Its results are explicitly labeled and carry a
// low confidence; it never recovers actual characters.
type HeuristicRecognizer struct {
	logger *zap.Logger
}

func (r *HeuristicRecognizer) Recognize(ctx context.Context, path string, opts OCROptions) (*OCRResult, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	density := edgeDensity(img)
	likelyText := density > 0.08

	var text string
	if likelyText {
		text = fmt.Sprintf("[Heuristic analysis: image likely contains text (edge density %.2f). Install tesseract for real character recognition.]", density)
	} else {
		text = fmt.Sprintf("[Heuristic analysis: no significant text detected (edge density %.2f).]", density)
	}

	return &OCRResult{
		Success:    true,
		Text:       text,
		Confidence: 0.3,
		Engine:     "heuristic",
	}, nil
}

// edgeDensity measures the fraction of horizontally adjacent pixel
// pairs with a strong luminance step. Dense small edges correlate with
// rendered text.
func edgeDensity(img image.Image) float64 {
	gray := imaging.Grayscale(imaging.Fit(img, 256, 256, imaging.Box))
	bounds := gray.Bounds()

	var edges, total int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X-1; x++ {
			c1, _, _, _ := gray.At(x, y).RGBA()
			c2, _, _, _ := gray.At(x+1, y).RGBA()
			diff := int(c1>>8) - int(c2>>8)
			if diff < 0 {
				diff = -diff
			}
			if diff > 48 {
				edges++
			}
			total++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(edges) / float64(total)
}

func report(fn preprocess.ProgressFunc, percent int, message string) {
	if fn != nil {
		fn(percent, message)
	}
}
