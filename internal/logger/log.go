// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"trino-query-log/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init
//
// 프로세스 운영 로그(stderr)용 zerolog Logger 를 만들고 전역으로 등록한다.
// serve 시작 시 한 번만 호출한다.
//
// 쿼리 로그 라인은 이 Logger 를 거치지 않는다.
// sink 가 listener 의 JSON 라인을 envelope 없이 그대로 쓴다.
//
// 전역 등록:
//   - zlog.Logger 교체
//   - 표준 log 패키지 출력(라이브러리 내부 로그)을 zerolog 로 연결
func Init(cfg config.Config) zerolog.Logger {
	l := New(cfg, os.Stderr)

	zlog.Logger = l
	stdlog.SetFlags(0)
	stdlog.SetOutput(l)

	return l
}

// New 는 out 으로 쓰는 Logger. 전역 상태는 건드리지 않는다.
//
//   - LOG_LEVEL 이 비었거나 잘못되면 info
//   - LOG_PRETTY=true 면 console writer, 아니면 JSON 한 줄
//   - 모든 로그에 service / instance 필드
//   - LOG_SAMPLE_N > 1 이면 debug/info 는 N 개 중 1 개 (warn 이상은 전부)
func New(cfg config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	w := out
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	l := zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", cfg.InstanceID).
		Logger()

	if cfg.LogSampleN <= 1 {
		return l
	}
	sampler := &zerolog.BasicSampler{N: cfg.LogSampleN}
	return l.Sample(&zerolog.LevelSampler{
		DebugSampler: sampler,
		InfoSampler:  sampler,
	})
}
