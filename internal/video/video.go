package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"

	"github.com/ivlev/bubble2video/internal/frame"
)

// FFmpegRecorder передает кадры в ffmpeg через stdin (rawvideo RGBA) и
// собирает итоговое видео. Процесс запускается на первом кадре, когда
// известен размер; все последующие кадры должны совпадать по размеру.
type FFmpegRecorder struct {
	OutputPath string
	FPS        int
	Encoder    string // libx264, h264_videotoolbox, h264_nvenc
	Quality    int

	ctx    context.Context
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	log    bytes.Buffer
	width  int
	height int
	rgba   *image.RGBA
	frames int
}

func NewFFmpegRecorder(ctx context.Context, outputPath string, fps int, encoder string, quality int) *FFmpegRecorder {
	if encoder == "" {
		encoder = "libx264"
	}
	return &FFmpegRecorder{
		OutputPath: outputPath,
		FPS:        fps,
		Encoder:    encoder,
		Quality:    quality,
		ctx:        ctx,
	}
}

// Record implements sink.Recorder.
func (r *FFmpegRecorder) Record(f *frame.Frame) error {
	// После отмены ffmpeg уже убит, запись в pipe дала бы только broken pipe
	if r.ctx != nil && r.ctx.Err() != nil {
		return r.ctx.Err()
	}
	if r.cmd == nil {
		if err := r.start(f.Width, f.Height); err != nil {
			return err
		}
	}
	if f.Width != r.width || f.Height != r.height {
		return fmt.Errorf("frame %dx%d does not match video size %dx%d", f.Width, f.Height, r.width, r.height)
	}

	// Запись raw RGBA данных
	f.WriteRGBA(r.rgba)
	if _, err := r.stdin.Write(r.rgba.Pix); err != nil {
		return fmt.Errorf("write raw error: %w, output: %s", err, r.log.String())
	}
	r.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (r *FFmpegRecorder) Frames() int {
	return r.frames
}

func (r *FFmpegRecorder) start(width, height int) error {
	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	r.width, r.height = width, height
	r.rgba = image.NewRGBA(image.Rect(0, 0, width, height))

	cmd := exec.CommandContext(ctx, "ffmpeg", r.buildFFmpegArgs(width, height)...)
	cmd.Stdout = &r.log
	cmd.Stderr = &r.log

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	r.cmd, r.stdin = cmd, stdin
	return nil
}

func (r *FFmpegRecorder) buildFFmpegArgs(width, height int) []string {
	fps := r.FPS
	if fps <= 0 {
		fps = 10
	}
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		// yuv420p требует четных размеров
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", r.Encoder,
	}
	args = append(args, QualityArgs(r.Encoder, r.Quality)...)
	args = append(args, r.OutputPath)
	return args
}

// QualityArgs возвращает параметры качества в зависимости от энкодера.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		bitrate := quality * 100 // кбит/с. 75 -> 7.5Мбит/с
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// DefaultQuality подбирает качество по умолчанию для энкодера.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // Хорошее качество для VideoToolbox
	case "h264_nvenc":
		return 28 // Эквивалент CRF для NVENC
	default:
		return 23 // Стандартный CRF для x264
	}
}

// Close finishes the stream and waits for ffmpeg to write the file.
func (r *FFmpegRecorder) Close() error {
	if r.cmd == nil {
		return nil
	}
	r.stdin.Close()
	if err := r.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, r.log.String())
	}
	r.cmd = nil
	return nil
}
