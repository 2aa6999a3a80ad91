package display

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ivlev/bubble2video/internal/frame"
)

// MQTT publishes a downsampled copy of every frame to a topic, e.g. for an
// LED matrix subscribed to the stream.
type MQTT struct {
	client  mqtt.Client
	topic   string
	cols    int
	rows    int
	timeout time.Duration
}

// NewMQTT connects to broker and publishes cols x rows pixel frames.
func NewMQTT(broker, topic string, cols, rows int) (*MQTT, error) {
	options := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("bubble2video").
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second)
	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return &MQTT{client: client, topic: topic, cols: cols, rows: rows, timeout: time.Second}, nil
}

// Present implements sink.Presenter.
func (m *MQTT) Present(f *frame.Frame) error {
	payload := MarshalPixels(Downsample(f, m.cols, m.rows))
	token := m.client.Publish(m.topic, 0, false, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("mqtt publish to %s: timeout", m.topic)
	}
	return token.Error()
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
