package engine

import (
	"fmt"
	"io"
	"log"

	"github.com/ivlev/bubble2video/internal/config"
	"github.com/ivlev/bubble2video/internal/display"
	"github.com/ivlev/bubble2video/internal/sink"
)

// OpenPresenters подключает живой просмотр по настройкам. Возвращенная
// функция закрывает все открытые презентеры.
func OpenPresenters(cfg *config.Config) (sink.Presenter, func(), error) {
	var ps sink.Presenters
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Printf("[!] Ошибка закрытия презентера: %v", err)
			}
		}
	}

	if cfg.Preview {
		term, err := display.NewTerminal()
		if err != nil {
			return nil, closeAll, fmt.Errorf("терминал: %w", err)
		}
		closers = append(closers, term)
		ps = append(ps, sink.Throttle(term, cfg.PreviewFPS))
	}
	if cfg.MQTTBroker != "" {
		m, err := display.NewMQTT(cfg.MQTTBroker, cfg.MQTTTopic, cfg.MQTTCols, cfg.MQTTRows)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, m)
		ps = append(ps, sink.Throttle(m, cfg.PreviewFPS))
	}

	switch len(ps) {
	case 0:
		return nil, closeAll, nil
	case 1:
		return ps[0], closeAll, nil
	}
	return ps, closeAll, nil
}
