package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/bubble2video/internal/config"
	"github.com/ivlev/bubble2video/internal/frame"
	"github.com/ivlev/bubble2video/internal/overlay"
	"github.com/ivlev/bubble2video/internal/script"
	"github.com/ivlev/bubble2video/internal/sequencer"
	"github.com/ivlev/bubble2video/internal/sink"
	"github.com/ivlev/bubble2video/internal/source"
	"github.com/ivlev/bubble2video/internal/system"
	"github.com/ivlev/bubble2video/internal/text"
	"github.com/ivlev/bubble2video/internal/video"
)

// Project связывает сценарий, ассеты и приемники кадров.
type Project struct {
	Config *config.Config
	Script *script.Script

	// Recorder создается из Config, если не задан явно.
	Recorder  sink.Recorder
	Presenter sink.Presenter

	BenchmarkLog string

	frames int // Кадров выдано последним Run
}

func NewProject(cfg *config.Config, sc *script.Script) *Project {
	return &Project{
		Config:       cfg,
		Script:       sc,
		BenchmarkLog: "benchmark.log",
	}
}

type assets struct {
	background *frame.Frame
	bubble     *frame.Frame
}

// load читает фон и пузырь параллельно.
func (p *Project) load(ctx context.Context) (*assets, error) {
	var a assets
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		f, err := source.Load(p.Script.Background, p.Script.PageIndex(), p.Config.DPI)
		if err != nil {
			return fmt.Errorf("фон: %w", err)
		}
		a.background = f
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		f, err := source.Load(p.Script.Bubble, 0, p.Config.DPI)
		if err != nil {
			return fmt.Errorf("пузырь: %w", err)
		}
		a.bubble = f
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &a, nil
}

// BuildSpecs turns script lines into sequencer specs sharing one asset.
func BuildSpecs(sc *script.Script, bubble *frame.Frame) []sequencer.Spec {
	specs := make([]sequencer.Spec, 0, len(sc.Bubbles))
	for _, b := range sc.Bubbles {
		specs = append(specs, sequencer.Spec{
			Overlay: bubble,
			Region:  b.Rect.Image(),
			Text:    b.Text,
			Mirror:  b.Mirror,
		})
	}
	return specs
}

// Settings merges the script style with CLI overrides.
func Settings(sc *script.Script, cfg *config.Config) (text.Style, sequencer.Options, error) {
	style := text.DefaultStyle()
	opts := sequencer.DefaultOptions()

	size := sc.Style.FontSize
	if cfg.FontSize > 0 {
		size = cfg.FontSize
	}
	if size > 0 {
		style.Size = size
	}

	hex := sc.Style.Color
	if cfg.TextColor != "" {
		hex = cfg.TextColor
	}
	if hex != "" {
		c, err := text.ParseColor(hex)
		if err != nil {
			return style, opts, err
		}
		style.Color = c
	}
	style.Wrap = sc.Style.Wrap || cfg.Wrap

	name := sc.Style.Easing
	if cfg.Easing != "" {
		name = cfg.Easing
	}
	e, err := sequencer.ParseEasing(name)
	if err != nil {
		return style, opts, err
	}
	opts.Easing = e
	opts.HoldFrame = sc.Style.HoldEnabled() && !cfg.NoHold
	return style, opts, nil
}

func (p *Project) fps() int {
	if p.Config.FPS > 0 {
		return p.Config.FPS
	}
	if p.Script.FPS > 0 {
		return p.Script.FPS
	}
	return 10
}

func (p *Project) newRecorder(ctx context.Context) (sink.Recorder, error) {
	if p.Config.FramesDir != "" {
		return video.NewPNGRecorder(p.Config.FramesDir)
	}
	out := p.Config.OutputVideo
	if out == "" {
		out = p.Script.Output
	}
	if out == "" {
		return nil, fmt.Errorf("не задан путь к видео")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return nil, err
	}
	quality := p.Config.Quality
	if quality == 0 {
		quality = video.DefaultQuality(p.Config.VideoEncoder)
	}
	return video.NewFFmpegRecorder(ctx, out, p.fps(), p.Config.VideoEncoder, quality), nil
}

func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()

	if err := p.Script.Validate(); err != nil {
		return err
	}

	a, err := p.load(ctx)
	if err != nil {
		return err
	}
	loadTime := time.Since(startTime)

	style, opts, err := Settings(p.Script, p.Config)
	if err != nil {
		return err
	}
	txt, err := text.NewRenderer(style)
	if err != nil {
		return err
	}

	specs := BuildSpecs(p.Script, a.bubble)
	if err := sequencer.Validate(a.background, specs); err != nil {
		return err
	}

	total := 0
	var playTime time.Duration
	for _, s := range specs {
		steps := s.Steps(opts)
		total += sequencer.FrameCount(steps)
		for _, st := range steps {
			playTime += st.Delay
		}
	}

	fmt.Println("--- [PROJECT: BUBBLE SEQUENCER] ---")
	fmt.Printf("[*] Фон: %s | %dx%d | Каналов: %d\n", p.Script.Background, a.background.Width, a.background.Height, a.background.Channels)
	fmt.Printf("[*] Пузырь: %s | Реплик: %d | Кадров: %d | Длительность показа: %s\n", p.Script.Bubble, len(specs), total, playTime)
	fmt.Println("-----------------------------")

	if p.Config.DryRun {
		return p.dryRun(ctx, a.background, specs, txt, opts)
	}

	rec := p.Recorder
	if rec == nil {
		rec, err = p.newRecorder(ctx)
		if err != nil {
			return err
		}
	}

	seq := sequencer.New(rec, txt)
	seq.Options = opts
	seq.Presenter = p.Presenter
	seq.Overlays = overlay.NewCache(p.Config.OverlayTTL)
	if p.Config.Realtime {
		seq.Pacer = sequencer.Realtime{}
	}
	seq.Progress = func(done, n int) {
		fmt.Printf("[>] Ready: %d/%d\n", done, n)
	}

	renderStart := time.Now()
	runErr := seq.Run(ctx, a.background, specs...)
	renderTime := time.Since(renderStart)

	encodeStart := time.Now()
	if c, ok := rec.(io.Closer); ok {
		if err := c.Close(); err != nil && runErr == nil {
			runErr = fmt.Errorf("ошибка сборки финального видео: %w", err)
		}
	}
	encodeTime := time.Since(encodeStart)
	if runErr != nil {
		return runErr
	}
	p.frames = total

	if p.Config.ShowStats {
		p.report(total, time.Since(startTime), loadTime, renderTime, encodeTime)
	}
	return nil
}

// dryRun проигрывает сценарий без пауз, записи и просмотра, только считая кадры.
func (p *Project) dryRun(ctx context.Context, background *frame.Frame, specs []sequencer.Spec, txt *text.Renderer, opts sequencer.Options) error {
	counter := &sink.Counter{}
	seq := sequencer.New(counter, txt)
	seq.Options = opts
	seq.Overlays = overlay.NewCache(p.Config.OverlayTTL)

	done := 0
	seq.Progress = func(i, n int) {
		s := specs[i-1]
		fmt.Printf("[*] %d. %v mirror=%t %q: %d кадров\n", i, s.Region, s.Mirror, s.Text, counter.N-done)
		done = counter.N
	}
	if err := seq.Run(ctx, background, specs...); err != nil {
		return err
	}
	p.frames = counter.N
	fmt.Printf("[*] Пробный прогон: %d кадров, файлы не записаны\n", counter.N)
	return nil
}

func (p *Project) report(frames int, totalTime, loadTime, renderTime, encodeTime time.Duration) {
	fps := float64(frames) / totalTime.Seconds()
	usage, err := system.Usage()
	if err != nil {
		log.Printf("[!] Не удалось получить статистику процесса: %v", err)
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Loading: %.2fs\n"+
			"Sequencing: %.2fs\n"+
			"Encoding tail: %.2fs\n"+
			"Frames: %d\n"+
			"Effective FPS: %.2f\n"+
			"%s\n"+
			"----------------------------\n",
		p.Config.BuildVersion, totalTime.Seconds(), loadTime.Seconds(), renderTime.Seconds(), encodeTime.Seconds(), frames, fps, usage,
	)
	fmt.Print(report)

	if p.BenchmarkLog == "" {
		return
	}
	logEntry := fmt.Sprintf("[%s] Build: %s | Background: %s | Bubbles: %d | Frames: %d | Total: %.2fs | Render: %.2fs | FPS: %.2f | RSS: %d\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Script.Background),
		len(p.Script.Bubbles),
		frames,
		totalTime.Seconds(),
		renderTime.Seconds(),
		fps,
		usage.RSS,
	)

	f, err := os.OpenFile(p.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("[!] Не удалось записать %s: %v\n", p.BenchmarkLog, err)
		return
	}
	defer f.Close()
	f.WriteString(logEntry)
}
