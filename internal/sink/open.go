package sink

import (
	"os"

	"trino-query-log/internal/archive"
	"trino-query-log/internal/config"
	"trino-query-log/internal/metrics"

	"github.com/rs/zerolog"
)

// Open
// ------------------------------------------------------------
// SinkConfig 로부터 sink 를 구성한다.
//
//   - output: "stdout" / "stderr" / 파일 경로
//   - archive.enabled: 위 출력에 더해 S3 archive sink 를 붙인다 (Tee)
//
// archive 는 Start 된 상태로 돌려주며, Close 시 남은 배치를 flush 한다.
func Open(cfg config.SinkConfig, m *metrics.Metrics, log zerolog.Logger) (Sink, error) {
	var primary Sink
	switch cfg.Output {
	case "stdout":
		primary = NewWriter(os.Stdout)
	case "stderr":
		primary = NewWriter(os.Stderr)
	default:
		f, err := OpenFile(cfg.Output)
		if err != nil {
			return nil, err
		}
		primary = f
	}

	if !cfg.Archive.Enabled {
		return primary, nil
	}

	mgr, err := archive.NewManager(cfg.Archive, m, log)
	if err != nil {
		_ = primary.Close()
		return nil, err
	}
	mgr.Start()

	log.Info().Str("archive", mgr.String()).Msg("archive sink started")

	return Tee(primary, mgr), nil
}
