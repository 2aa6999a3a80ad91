package config

import "time"

type Config struct {
	DPI          int
	OutputVideo  string
	FramesDir    string // Если задан, кадры пишутся как PNG вместо видео
	FPS          int
	VideoEncoder string
	Quality      int

	Realtime   bool
	Preview    bool
	PreviewFPS float64
	MQTTBroker string
	MQTTTopic  string
	MQTTCols   int
	MQTTRows   int

	DryRun bool

	FontSize  float64
	TextColor string
	Easing    string
	Wrap      bool
	NoHold    bool

	OverlayTTL   time.Duration
	ShowStats    bool
	BuildVersion string
}

// Default возвращает значения, совпадающие с флагами CLI по умолчанию.
func Default() *Config {
	return &Config{
		DPI:        150,
		FPS:        10,
		PreviewFPS: 15,
		MQTTTopic:  "bubble2video/frame",
		MQTTCols:   32,
		MQTTRows:   16,
		OverlayTTL: 5 * time.Minute,
	}
}
