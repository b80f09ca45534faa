package library

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"
	"mediainfo-keeper/core/utils"
)

// Prober extracts technical metadata for an item.
type Prober interface {
	Probe(ctx context.Context, item media.Item) (media.MediaSource, error)
}

// FFProbe probes the target of a reference file with ffprobe.
type FFProbe struct {
	// Path is the ffprobe binary.
	Path string
}

// NewFFProbe creates an FFProbe using the given binary, defaulting to "ffprobe" on PATH.
func NewFFProbe(path string) *FFProbe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFProbe{Path: path}
}

// Probe implements Prober. Every failure wraps reconcile.ErrProbeFailed.
func (f *FFProbe) Probe(ctx context.Context, item media.Item) (media.MediaSource, error) {
	target, err := ReadReference(item.Path)
	if err != nil {
		return media.MediaSource{}, fmt.Errorf("%w: %w", reconcile.ErrProbeFailed, err)
	}

	cmd := exec.CommandContext(ctx, f.Path,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams", "-show_chapters",
		target)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return media.MediaSource{}, fmt.Errorf("%w: %s: %w", reconcile.ErrProbeFailed, target, ctx.Err())
		}
		return media.MediaSource{}, fmt.Errorf("%w: %s: %v: %s", reconcile.ErrProbeFailed, target, err, strings.TrimSpace(stderr.String()))
	}

	src, err := ParseFFProbe(out)
	if err != nil {
		return media.MediaSource{}, fmt.Errorf("%w: %s: %w", reconcile.ErrProbeFailed, target, err)
	}
	src.Path = target
	src.Protocol = protocolOf(target)
	return src, nil
}

// ReadReference returns the media location named by a reference file.
// Relative local targets are resolved against the reference file's folder.
func ReadReference(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open reference file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if protocolOf(line) == "file" && !filepath.IsAbs(line) {
			line = filepath.Join(filepath.Dir(path), line)
		}
		return line, nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read reference file: %w", err)
	}
	return "", fmt.Errorf("reference file %s names no target", path)
}

func protocolOf(target string) string {
	if i := strings.Index(target, "://"); i > 0 {
		scheme := strings.ToLower(target[:i])
		if scheme == "https" {
			return "http"
		}
		return scheme
	}
	return "file"
}

type ffprobeOutput struct {
	Streams  []ffprobeStream  `json:"streams"`
	Chapters []ffprobeChapter `json:"chapters"`
	Format   ffprobeFormat    `json:"format"`
}

type ffprobeStream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Profile      string            `json:"profile"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	PixFmt       string            `json:"pix_fmt"`
	SampleRate   any               `json:"sample_rate"`
	Channels     int               `json:"channels"`
	BitRate      any               `json:"bit_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	RFrameRate   string            `json:"r_frame_rate"`
	Disposition  map[string]any    `json:"disposition"`
	Tags         map[string]string `json:"tags"`
}

type ffprobeChapter struct {
	StartTime any               `json:"start_time"`
	Tags      map[string]string `json:"tags"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   any    `json:"duration"`
	Size       any    `json:"size"`
	BitRate    any    `json:"bit_rate"`
}

const ticksPerSecond = 10_000_000

// ParseFFProbe maps ffprobe JSON output to a media source.
func ParseFFProbe(data []byte) (media.MediaSource, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return media.MediaSource{}, fmt.Errorf("invalid ffprobe output: %w", err)
	}

	src := media.MediaSource{
		Container:    containerOf(out.Format.FormatName),
		RunTimeTicks: secondsToTicks(out.Format.Duration),
		Bitrate:      utils.ToInt(out.Format.BitRate),
		Size:         utils.ToInt64(out.Format.Size),
	}

	for _, s := range out.Streams {
		stream := media.MediaStream{
			Index:       s.Index,
			Type:        streamTypeOf(s),
			Codec:       s.CodecName,
			Language:    s.Tags["language"],
			Title:       s.Tags["title"],
			IsDefault:   utils.ToBool(s.Disposition["default"]),
			IsForced:    utils.ToBool(s.Disposition["forced"]),
			Channels:    s.Channels,
			SampleRate:  utils.ToInt(s.SampleRate),
			Width:       s.Width,
			Height:      s.Height,
			BitRate:     utils.ToInt(s.BitRate),
			Profile:     s.Profile,
			PixelFormat: s.PixFmt,
		}
		if stream.Type == media.StreamVideo {
			stream.FrameRate = utils.ToFloat(s.AvgFrameRate)
			if stream.FrameRate == 0 {
				stream.FrameRate = utils.ToFloat(s.RFrameRate)
			}
		}
		src.Streams = append(src.Streams, stream)
	}

	for _, c := range out.Chapters {
		src.Chapters = append(src.Chapters, media.Chapter{
			StartPositionTicks: secondsToTicks(c.StartTime),
			Name:               c.Tags["title"],
		})
	}

	if len(src.Streams) == 0 {
		return src, fmt.Errorf("ffprobe reported no streams")
	}
	return src, nil
}

func secondsToTicks(v any) int64 {
	return int64(math.Round(utils.ToFloat(v) * ticksPerSecond))
}

func streamTypeOf(s ffprobeStream) media.StreamType {
	switch s.CodecType {
	case "video":
		if utils.ToBool(s.Disposition["attached_pic"]) {
			return media.StreamEmbeddedImage
		}
		return media.StreamVideo
	case "audio":
		return media.StreamAudio
	case "subtitle":
		return media.StreamSubtitle
	default:
		return media.StreamData
	}
}

func containerOf(formatName string) string {
	switch {
	case formatName == "":
		return ""
	case strings.Contains(formatName, "matroska"):
		return "mkv"
	case strings.Contains(formatName, "mp4"):
		return "mp4"
	case formatName == "mpegts":
		return "ts"
	case strings.HasPrefix(formatName, "hls"):
		return "hls"
	default:
		return strings.SplitN(formatName, ",", 2)[0]
	}
}
