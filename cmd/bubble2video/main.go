package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ivlev/bubble2video/internal/config"
	"github.com/ivlev/bubble2video/internal/engine"
	"github.com/ivlev/bubble2video/internal/script"
	"github.com/ivlev/bubble2video/internal/system"
)

var buildVersion = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	def := config.Default()

	scriptPtr := flag.String("script", "", "Путь к YAML-сценарию (по умолчанию: самый свежий в input/scripts/, иначе встроенный диалог)")
	backgroundPtr := flag.String("background", "", "Фон: изображение или PDF (переопределяет сценарий)")
	bubblePtr := flag.String("bubble", "", "PNG пузыря с прозрачностью (переопределяет сценарий)")
	pagePtr := flag.Int("page", -1, "Страница PDF-фона, с 1 (по умолчанию из сценария)")
	dpiPtr := flag.Int("dpi", def.DPI, "DPI для PDF")
	outputPtr := flag.String("output", "", "Путь к видео (по умолчанию из сценария)")
	framesDirPtr := flag.String("frames-dir", "", "Писать кадры как PNG в папку вместо видео")
	fpsPtr := flag.Int("fps", 0, "FPS (0 - из сценария)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	realtimePtr := flag.Bool("realtime", false, "Выдерживать паузы между кадрами в реальном времени")
	previewPtr := flag.Bool("preview", false, "Показывать кадры в терминале")
	previewFPSPtr := flag.Float64("preview-fps", def.PreviewFPS, "Максимальный FPS живого просмотра")
	mqttBrokerPtr := flag.String("mqtt-broker", "", "MQTT брокер для LED-матрицы, например tcp://localhost:1883")
	mqttTopicPtr := flag.String("mqtt-topic", def.MQTTTopic, "MQTT топик для кадров")
	dryRunPtr := flag.Bool("dry-run", false, "Только проверить сценарий и посчитать кадры")
	writeScriptPtr := flag.Bool("write-script", false, "Сохранить встроенный сценарий в input/scripts/ и выйти")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")
	fontSizePtr := flag.Float64("font-size", 0, "Размер шрифта (0 - из сценария)")
	colorPtr := flag.String("color", "", "Цвет текста #rrggbb")
	easingPtr := flag.String("easing", "", "Кривая прозрачности: linear, in-quad, out-quad, in-out-quad, in-cubic, out-cubic, in-out-cubic, in-out-sine")
	wrapPtr := flag.Bool("wrap", false, "Переносить текст по ширине пузыря")
	noHoldPtr := flag.Bool("no-hold", false, "Не выводить отдельный кадр паузы после текста")

	flag.Parse()

	if *writeScriptPtr {
		path := script.GenerateScriptPath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		if err := script.WriteScript(script.DefaultScript(), path); err != nil {
			log.Fatalf("[-] Ошибка записи сценария: %v", err)
		}
		fmt.Printf("[+++] Успех! Сценарий сохранен: %s\n", path)
		return
	}

	sc, err := loadScript(*scriptPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения сценария: %v", err)
	}
	if *backgroundPtr != "" {
		sc.Background = *backgroundPtr
	}
	if *bubblePtr != "" {
		sc.Bubble = *bubblePtr
	}
	if *pagePtr > 0 {
		sc.Page = *pagePtr
	}

	encoderName := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}

	cfg := def
	cfg.DPI = *dpiPtr
	cfg.OutputVideo = *outputPtr
	cfg.FramesDir = *framesDirPtr
	cfg.FPS = *fpsPtr
	cfg.VideoEncoder = encoderName
	cfg.Quality = *qualityPtr
	cfg.Realtime = *realtimePtr
	cfg.Preview = *previewPtr
	cfg.PreviewFPS = *previewFPSPtr
	cfg.MQTTBroker = *mqttBrokerPtr
	cfg.MQTTTopic = *mqttTopicPtr
	cfg.DryRun = *dryRunPtr
	cfg.FontSize = *fontSizePtr
	cfg.TextColor = *colorPtr
	cfg.Easing = *easingPtr
	cfg.Wrap = *wrapPtr
	cfg.NoHold = *noHoldPtr
	cfg.ShowStats = *statsPtr
	cfg.BuildVersion = buildVersion

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, cfg, sc); err != nil {
		stop()
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	if !cfg.DryRun {
		out := cfg.FramesDir
		if out == "" {
			out = cfg.OutputVideo
			if out == "" {
				out = sc.Output
			}
		}
		fmt.Printf("[+++] Успех! Результат: %s\n", out)
	}
}

func execute(ctx context.Context, cfg *config.Config, sc *script.Script) error {
	project := engine.NewProject(cfg, sc)
	if !cfg.DryRun {
		presenter, closePresenters, err := engine.OpenPresenters(cfg)
		if err != nil {
			return fmt.Errorf("живой просмотр: %w", err)
		}
		defer closePresenters()
		project.Presenter = presenter
	}
	return project.Run(ctx)
}

// loadScript читает сценарий: явный путь, самый свежий в input/scripts/
// или встроенный диалог.
func loadScript(path string) (*script.Script, error) {
	if path == "" {
		latest, err := script.FindLatestScript(script.DefaultDir)
		if err != nil {
			fmt.Println("[*] Сценарий не найден, используется встроенный диалог")
			return script.DefaultScript(), nil
		}
		path = latest
	}
	sc, err := script.ReadScript(path)
	if err != nil {
		return nil, err
	}
	sc.Resolve(filepath.Dir(path))
	fmt.Printf("[*] Используется сценарий: %s\n", path)
	return sc, nil
}
