package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boxkit/cli/pkg/preprocess"
	"github.com/boxkit/cli/pkg/recognize"
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Run the local media preprocessing pipeline",
	Long: `Extract metadata from a media file, pull the audio track out of
video and convert audio to WAV. Image files get EXIF metadata and an
optional thumbnail instead. Results are printed as JSON.

Steps that need ffmpeg or ffprobe degrade to documented fallbacks when
the binaries are missing.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

var ocrCmd = &cobra.Command{
	Use:   "ocr <image>",
	Short: "Recognize text in an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runOCR,
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Transcribe speech in an audio or video file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscribe,
}

func init() {
	rootCmd.AddCommand(processCmd, ocrCmd, transcribeCmd)

	processCmd.Flags().Bool("no-audio", false, "Skip audio extraction and conversion")
	processCmd.Flags().Int("sample-rate", 0, "Target sample rate for audio output")
	processCmd.Flags().StringP("output", "o", "", "Write extracted audio (or image thumbnail) to this file")
	processCmd.Flags().Bool("progress", false, "Print pipeline progress")

	ocrCmd.Flags().String("lang", "eng", "Recognition language")
	transcribeCmd.Flags().String("language", "", "Spoken language hint")
}

func runProcess(cmd *cobra.Command, args []string) error {
	path := args[0]
	noAudio, _ := cmd.Flags().GetBool("no-audio")
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	output, _ := cmd.Flags().GetString("output")
	showProgress, _ := cmd.Flags().GetBool("progress")

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read '%s': %w", path, err)
	}

	// Images skip the audio pipeline entirely.
	if preprocess.IsImageFile(path) {
		return processImage(path, output)
	}

	opts := preprocess.Options{
		ExtractMetadata:  true,
		ExtractAudio:     !noAudio,
		TargetSampleRate: sampleRate,
	}
	if !noAudio {
		opts.ConvertToFormat = "wav"
	}
	if showProgress {
		opts.OnProgress = func(percent int, message string) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", percent, message)
		}
	}

	pp := preprocess.NewPreprocessor(newLogger())
	result := pp.ProcessMediaFile(cmd.Context(), path, opts)

	if output != "" && result.ProcessedFile != nil {
		if err := os.WriteFile(output, result.ProcessedFile.Data, 0644); err != nil {
			return fmt.Errorf("failed to write audio output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(result.ProcessedFile.Data), output)
	}

	printJSON(processView{
		Success:      result.Success,
		Metadata:     result.Metadata,
		AudioBytes:   blobSize(result.ProcessedFile),
		AudioSamples: len(result.AudioData),
		Error:        result.Error,
	})

	if !result.Success {
		os.Exit(1)
	}
	return nil
}

// processImage reads EXIF metadata and, when an output path is given,
// writes a bounded JPEG thumbnail.
func processImage(path, output string) error {
	meta, err := preprocess.ExtractImageMetadata(path)
	if err != nil {
		return fmt.Errorf("failed to read image metadata: %w", err)
	}

	if output != "" {
		thumb, err := preprocess.GenerateThumbnail(path)
		if err != nil {
			return fmt.Errorf("failed to generate thumbnail: %w", err)
		}
		if err := os.WriteFile(output, thumb, 0644); err != nil {
			return fmt.Errorf("failed to write thumbnail: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d byte thumbnail to %s\n", len(thumb), output)
	}

	printJSON(processView{Success: true, Metadata: meta})
	return nil
}

// processView keeps raw sample and blob payloads out of the JSON dump.
type processView struct {
	Success      bool                 `json:"success"`
	Metadata     *preprocess.Metadata `json:"metadata,omitempty"`
	AudioBytes   int                  `json:"audioBytes,omitempty"`
	AudioSamples int                  `json:"audioSamples,omitempty"`
	Error        string               `json:"error,omitempty"`
}

func blobSize(blob *preprocess.Blob) int {
	if blob == nil {
		return 0
	}
	return len(blob.Data)
}

func runOCR(cmd *cobra.Command, args []string) error {
	path := args[0]
	lang, _ := cmd.Flags().GetString("lang")

	if !recognize.SupportsOCR(path) {
		return fmt.Errorf("'%s' is not a supported image file", path)
	}

	processor := recognize.NewOCRProcessor(newLogger(), nil)
	result := processor.ProcessOCR(cmd.Context(), path, recognize.OCROptions{Language: lang})

	printJSON(result)
	if !result.Success {
		os.Exit(1)
	}
	return nil
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	path := args[0]
	language, _ := cmd.Flags().GetString("language")

	if !recognize.SupportsTranscription(path) {
		return fmt.Errorf("'%s' is not a supported audio or video file", path)
	}

	processor := recognize.NewSpeechProcessor(newLogger(), nil)
	result := processor.ProcessTranscription(cmd.Context(), path, recognize.TranscriptionOptions{Language: language})

	printJSON(result)
	if !result.Success {
		os.Exit(1)
	}
	return nil
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to encode result: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
