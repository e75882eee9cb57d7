package cli

import (
	"errors"
	"fmt"

	"trino-query-log/internal/config"
	"trino-query-log/internal/listener"
	"trino-query-log/internal/metrics"
	"trino-query-log/internal/sink"

	"github.com/rs/zerolog"
)

// pipeline 은 serve / replay 가 공유하는 sink → dispatcher 구성.
// sink 의 소유자이며 Close 로 정리한다.
type pipeline struct {
	metrics  *metrics.Metrics
	sink     sink.Sink
	listener *listener.Reloadable
	sinkPath string
	log      zerolog.Logger
}

// newPipeline
//
//  1. props.ConfigFileLocation 에서 sink 설정을 읽는다 (없으면 stdout + 경고)
//  2. sink 를 연다
//  3. Dispatcher 를 만들어 Reloadable 에 담는다
func newPipeline(cfg config.Config, props config.Properties, log zerolog.Logger) (*pipeline, error) {
	sinkCfg, err := loadSinkConfig(props.ConfigFileLocation, log)
	if err != nil {
		return nil, err
	}
	sinkCfg.Archive.InstanceID = cfg.InstanceID

	m := metrics.New()
	s, err := sink.Open(sinkCfg, m, log)
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}

	d, err := listener.NewDispatcher(props, s, m, log)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	return &pipeline{
		metrics:  m,
		sink:     s,
		listener: listener.NewReloadable(d),
		sinkPath: props.ConfigFileLocation,
		log:      log,
	}, nil
}

// reload 는 새 설정으로 Dispatcher 를 교체한다. sink 는 그대로 유지한다.
func (p *pipeline) reload(props config.Properties) {
	if props.ConfigFileLocation != p.sinkPath {
		p.log.Warn().
			Str("current", p.sinkPath).
			Str("new", props.ConfigFileLocation).
			Msg("sink config location changed, restart required to apply")
	}
	d, err := listener.NewDispatcher(props, p.sink, p.metrics, p.log)
	if err != nil {
		p.log.Error().Err(err).Msg("listener reload failed, keeping current config")
		return
	}
	p.listener.Swap(d)
	p.log.Info().Msg("listener config reloaded")
}

func (p *pipeline) Close() error {
	return p.sink.Close()
}

func loadSinkConfig(path string, log zerolog.Logger) (config.SinkConfig, error) {
	cfg, err := config.LoadSinkConfig(path)
	if errors.Is(err, config.ErrSinkConfigNotFound) {
		log.Warn().Str("path", path).Msg("sink config not found, writing to stdout")
		return cfg, nil
	}
	return cfg, err
}

// configPath 는 --config 플래그가 있으면 그 값, 없으면 LISTENER_CONFIG.
func configPath(flag string, cfg config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.ListenerConfig
}
