package preprocess

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"
)

// Prober extracts technical metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}

// NewProber returns an ffprobe-backed prober when the binary is in
// PATH, otherwise the extension/stat fallback.
func NewProber(logger *zap.Logger) Prober {
	if _, err := exec.LookPath("ffprobe"); err == nil {
		return &FFprobeProber{logger: logger}
	}
	logger.Warn("ffprobe not found in PATH, falling back to basic metadata probe")
	return &BasicProber{}
}

// FFprobeProber shells out to ffprobe for stream-level metadata.
type FFprobeProber struct {
	logger *zap.Logger
}

// ffprobeOutput maps the subset of ffprobe JSON the prober consumes.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

func (p *FFprobeProber) Probe(ctx context.Context, path string) (*Metadata, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	meta := &Metadata{Format: MIMEType(path)}
	meta.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)
	meta.Bitrate, _ = strconv.Atoi(probed.Format.BitRate)

	for _, stream := range probed.Streams {
		switch stream.CodecType {
		case "video":
			if meta.Width == 0 {
				meta.Width = stream.Width
				meta.Height = stream.Height
			}
		case "audio":
			if meta.SampleRate == 0 {
				meta.SampleRate, _ = strconv.Atoi(stream.SampleRate)
				meta.Channels = stream.Channels
			}
		}
	}

	p.logger.Debug("probed media file",
		zap.String("path", path),
		zap.Float64("duration", meta.Duration),
	)
	return meta, nil
}

// BasicProber derives what it can from the filesystem and extension
// alone. Unsupported media types fail as a metadata load error so
// corrupt-input semantics match the full prober.
type BasicProber struct{}

func (p *BasicProber) Probe(ctx context.Context, path string) (*Metadata, error) {
	if !IsMediaFile(path) && !IsImageFile(path) {
		return nil, fmt.Errorf("unsupported media type: %s", path)
	}
	return &Metadata{Format: MIMEType(path)}, nil
}

// ExtractImageMetadata reads EXIF dimensions from an image file.
// Missing EXIF data is not an error; the result just stays sparse.
func ExtractImageMetadata(path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	meta := &Metadata{
		Format: MIMEType(path),
		Size:   info.Size(),
	}

	f, err := os.Open(path)
	if err != nil {
		return meta, nil
	}
	defer f.Close()

	exifData, err := exif.Decode(f)
	if err != nil {
		return meta, nil
	}

	if tag, err := exifData.Get(exif.PixelXDimension); err == nil {
		if width, err := tag.Int(0); err == nil {
			meta.Width = width
		}
	}
	if tag, err := exifData.Get(exif.PixelYDimension); err == nil {
		if height, err := tag.Int(0); err == nil {
			meta.Height = height
		}
	}
	if meta.Width == 0 {
		if tag, err := exifData.Get(exif.ImageWidth); err == nil {
			if width, err := tag.Int(0); err == nil {
				meta.Width = width
			}
		}
	}
	if meta.Height == 0 {
		if tag, err := exifData.Get(exif.ImageLength); err == nil {
			if height, err := tag.Int(0); err == nil {
				meta.Height = height
			}
		}
	}

	return meta, nil
}
