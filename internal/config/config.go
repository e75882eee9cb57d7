// internal/config/config.go
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Config
//
// 프로세스(serve/replay) 실행 시 필요한 환경 변수 값을 보관하는 구조체.
// 모든 값은 프로세스 시작 시점에 Load() 에 의해 초기화되며,
// 이후에는 변경되지 않는 불변(read-only) 설정들이다.
//
// listener 의 필터 설정(Properties)은 별도 파일에서 읽는다 (properties.go).
type Config struct {

	// ---------------------------
	// 서버 식별자 / 네트워크
	// ---------------------------

	ServiceName string // 로그 공통 필드 service
	InstanceID  string // 프로세스 고유 ID (호스트명 기반, 실패 시 uuid)
	HTTPAddr    string // HTTP 수신 서버 bind 주소 (예: ":8080")

	// ---------------------------
	// 요청 처리 파라미터
	// ---------------------------

	MaxBodySize int64 // 이벤트 1건 HTTP body 최대 크기 (바이트)

	// ---------------------------
	// listener 설정 파일
	// ---------------------------

	ListenerConfig string // Properties YAML 경로

	// ---------------------------
	// 애플리케이션 로그 (zerolog)
	// ---------------------------

	LogLevel   string // debug / info / warn / error
	LogPretty  bool   // true 면 console writer
	LogSampleN uint32 // >1 이면 debug/info 를 N 개 중 1 개만 기록
}

const (
	defaultServiceName    = "trino-query-log"
	defaultHTTPAddr       = ":8080"
	defaultMaxBodySize    = 4 << 20
	defaultListenerConfig = "etc/event-listener.yaml"
	defaultLogLevel       = "info"
)

// Load
//
// 환경 변수 기반으로 Config 값을 초기화한다.
// 값이 없으면 기본값을 쓰고, 형식이 잘못된 값은 error 로 돌려준다 (fail-fast).
func Load() (Config, error) {
	cfg := Config{
		ServiceName:    envOr("SERVICE_NAME", defaultServiceName),
		InstanceID:     envOr("INSTANCE_ID", ""),
		HTTPAddr:       envOr("HTTP_ADDR", defaultHTTPAddr),
		ListenerConfig: envOr("LISTENER_CONFIG", defaultListenerConfig),
		LogLevel:       envOr("LOG_LEVEL", defaultLogLevel),
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = fallbackInstanceID()
	}

	var err error
	if cfg.MaxBodySize, err = envInt64("MAX_BODY_SIZE", defaultMaxBodySize); err != nil {
		return Config{}, err
	}
	if cfg.LogPretty, err = envBool("LOG_PRETTY", false); err != nil {
		return Config{}, err
	}
	n, err := envInt64("LOG_SAMPLE_N", 0)
	if err != nil {
		return Config{}, err
	}
	if n < 0 || n > math.MaxUint32 {
		return Config{}, fmt.Errorf("invalid env LOG_SAMPLE_N=%d: must be in [0, %d]", n, uint32(math.MaxUint32))
	}
	cfg.LogSampleN = uint32(n)

	if cfg.MaxBodySize <= 0 {
		return Config{}, fmt.Errorf("invalid env MAX_BODY_SIZE=%d: must be > 0", cfg.MaxBodySize)
	}
	return cfg, nil
}

// envOr / envInt64 / envBool
//
// 공통 패턴.
// 비어있거나 공백뿐이면 기본값, 형식이 잘못되면 error.
func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64(key string, def int64) (int64, error) {
	v := envOr(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid int64 env %s=%q: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := envOr(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool env %s=%q: %w", key, v, err)
	}
	return b, nil
}

// fallbackInstanceID
//
// 이 프로세스 인스턴스를 식별하는 고유 값.
//   - 기본: hostname (컨테이너에서는 task-id 형태로 고유)
//   - fallback: uuid 앞 12자리
func fallbackInstanceID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
