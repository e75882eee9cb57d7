// internal/config/sink.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SinkConfig
//
// 로그 라인을 받아 저장하는 sink 의 설정.
// Properties.ConfigFileLocation 이 가리키는 YAML 파일에서 읽는다.
//
//	output: /var/log/trino/query.log   # stdout | stderr | 파일 경로
//	archive:
//	  enabled: true
//	  region: ap-northeast-2
//	  bucket: trino-query-log
//	  ...
type SinkConfig struct {
	Output  string        `yaml:"output"`
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig
//
// 로그 라인을 배치로 묶어 gzip JSONL 로 S3 에 올리는 archive sink 설정.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`

	// ---------------------------
	// AWS / S3 기본 환경
	// ---------------------------

	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	RawPrefix string `yaml:"raw_prefix"` // 정상 업로드 prefix (예: query-log)
	DLQPrefix string `yaml:"dlq_prefix"` // 깨진 DLQ 파일 업로드 prefix

	// InstanceID 는 파일명에 들어가는 프로세스 식별자. YAML 이 아니라 Config 에서 채운다.
	InstanceID string `yaml:"-"`

	// ---------------------------
	// 배치 파라미터
	// ---------------------------

	ChannelSize   int           `yaml:"channel_size"`   // Emit → collectLoop 버퍼
	UploadQueue   int           `yaml:"upload_queue"`   // collectLoop → uploadLoop 버퍼
	BatchSize     int           `yaml:"batch_size"`     // N 라인 모이면 업로드
	FlushInterval time.Duration `yaml:"flush_interval"` // 시간 기반 flush

	// ---------------------------
	// S3 업로드 설정
	// ---------------------------
	// SDK retry 는 0 으로 고정하고 애플리케이션 retry(S3AppRetries)만 사용한다.

	S3Timeout    time.Duration `yaml:"s3_timeout"`
	S3AppRetries int           `yaml:"s3_app_retries"`

	// ---------------------------
	// 로컬 DLQ (Dead Letter Queue)
	// ---------------------------

	DLQDir          string        `yaml:"dlq_dir"`
	DLQMaxAge       time.Duration `yaml:"dlq_max_age"`
	DLQMaxSizeBytes int64         `yaml:"dlq_max_size_bytes"`
}

// DefaultSinkConfig 는 stdout 출력, archive 비활성 설정.
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		Output: "stdout",
		Archive: ArchiveConfig{
			RawPrefix:       "query-log",
			DLQPrefix:       "query-log-dlq",
			ChannelSize:     10000,
			UploadQueue:     8,
			BatchSize:       1000,
			FlushInterval:   time.Minute,
			S3Timeout:       5 * time.Second,
			S3AppRetries:    3,
			DLQDir:          "var/dlq",
			DLQMaxAge:       72 * time.Hour,
			DLQMaxSizeBytes: 1 << 30,
		},
	}
}

// ErrSinkConfigNotFound 는 sink 설정 파일이 없을 때 LoadSinkConfig 가 기본값과 함께 돌려준다.
var ErrSinkConfigNotFound = errors.New("sink config not found")

// LoadSinkConfig
//
// YAML 을 읽어 DefaultSinkConfig 위에 덮어쓴다.
// 파일이 없으면 기본 설정과 ErrSinkConfigNotFound 를 함께 돌려준다.
// (호출자는 경고만 남기고 기본 sink 로 계속 진행)
func LoadSinkConfig(path string) (SinkConfig, error) {
	cfg := DefaultSinkConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("%w: %s", ErrSinkConfigNotFound, path)
	}
	if err != nil {
		return SinkConfig{}, fmt.Errorf("read sink config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SinkConfig{}, fmt.Errorf("parse sink config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return SinkConfig{}, fmt.Errorf("sink config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate 는 archive 가 켜져 있을 때 필수 값과 범위를 검사한다.
func (c SinkConfig) Validate() error {
	if c.Output == "" {
		return errors.New("output is empty")
	}
	a := c.Archive
	if !a.Enabled {
		return nil
	}
	switch {
	case a.Region == "":
		return errors.New("archive.region is empty")
	case a.Bucket == "":
		return errors.New("archive.bucket is empty")
	case a.RawPrefix == "" || a.DLQPrefix == "":
		return errors.New("archive.raw_prefix and archive.dlq_prefix are required")
	case a.ChannelSize <= 0 || a.UploadQueue <= 0 || a.BatchSize <= 0:
		return errors.New("archive.channel_size, upload_queue and batch_size must be > 0")
	case a.FlushInterval <= 0 || a.S3Timeout <= 0:
		return errors.New("archive.flush_interval and s3_timeout must be > 0")
	case a.S3AppRetries <= 0:
		return errors.New("archive.s3_app_retries must be > 0")
	case a.DLQDir == "":
		return errors.New("archive.dlq_dir is empty")
	}
	return nil
}
