// internal/archive/manager.go
package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trino-query-log/internal/config"
	"trino-query-log/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrQueueFull 은 라인 채널이 가득 차서 라인을 버렸을 때.
	ErrQueueFull = errors.New("archive queue full")
	// ErrClosed 는 Close 이후 Emit 했을 때.
	ErrClosed = errors.New("archive closed")
)

// DLQ 재업로드 주기와 라운드당 최대 파일 수
const (
	dlqInterval     = time.Second
	dlqFilesPerTurn = 3
)

// Manager
// ------------------------------------------------------------
// 로그 라인을 배치로 묶어 S3 에 올리는 archive sink.
//
//   - lineCh: Emit → collectLoop (non-blocking, 가득 차면 drop)
//   - collectLoop: BatchSize 또는 FlushInterval 마다 uploadCh 로 전달
//   - uploadLoop: gzip JSONL 인코딩 → S3 업로드 (실패 시 로컬 DLQ)
//     + 배치마다 / dlqInterval 마다 DLQ 재업로드
//
// listener 는 Emit 에서 절대 기다리지 않는다.
// Close 는 남은 라인을 모두 flush 한 뒤 반환한다.
type Manager struct {
	cfg     config.ArchiveConfig
	metrics *metrics.Metrics
	log     zerolog.Logger
	s3      *S3Uploader
	dlq     *DLQManager
	encoder *Encoder

	lineCh   chan string
	uploadCh chan []string

	ctx    context.Context
	cancel context.CancelFunc

	// mu 는 Emit 과 close(lineCh) 의 경합을 막는다
	mu     sync.RWMutex
	closed bool

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewManager 는 S3 client 와 DLQ 디렉토리를 준비한다.
func NewManager(cfg config.ArchiveConfig, m *metrics.Metrics, log zerolog.Logger) (*Manager, error) {
	uploader, err := NewS3Uploader(context.Background(), cfg, m)
	if err != nil {
		return nil, err
	}
	return newManager(cfg, m, log, uploader)
}

func newManager(cfg config.ArchiveConfig, m *metrics.Metrics, log zerolog.Logger, uploader *S3Uploader) (*Manager, error) {
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()[:8]
	}
	log = log.With().Str("component", "archive").Logger()

	dlq, err := NewDLQManager(cfg, m, uploader, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		metrics:  m,
		log:      log,
		s3:       uploader,
		dlq:      dlq,
		encoder:  NewEncoder(),
		lineCh:   make(chan string, cfg.ChannelSize),
		uploadCh: make(chan []string, cfg.UploadQueue),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start 는 collectLoop / uploadLoop 를 띄운다.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		m.wg.Add(2)
		go m.collectLoop()
		go m.uploadLoop()
	})
}

// Emit 은 라인을 채널에 넣는다. 가득 찼으면 버리고 ErrQueueFull.
func (m *Manager) Emit(line string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	select {
	case m.lineCh <- line:
		m.metrics.ArchiveLinesQueued.Inc()
		return nil
	default:
		m.metrics.ArchiveLinesDropped.Inc()
		return ErrQueueFull
	}
}

// Close 는 lineCh 를 닫고, 남은 배치 업로드가 끝날 때까지 기다린다.
// 두 번 이상 호출해도 안전하다.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.lineCh)
		m.mu.Unlock()

		// Start 없이 Close 되어도 uploadCh 는 닫혀야 한다
		m.startOnce.Do(func() { close(m.uploadCh) })
		m.wg.Wait()
		m.cancel()
	})
	return nil
}

// collectLoop 는 lineCh 를 배치로 묶는다.
// flush 는 매번 새 slice 를 만든다. (uploadLoop 가 이전 slice 를 아직 쓰고 있을 수 있음)
func (m *Manager) collectLoop() {
	defer m.wg.Done()
	defer close(m.uploadCh)

	batch := make([]string, 0, m.cfg.BatchSize)
	timer := time.NewTimer(m.cfg.FlushInterval)
	defer timer.Stop()

	reset := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(m.cfg.FlushInterval)
	}

	flush := func() {
		if len(batch) == 0 {
			return
		}
		m.uploadCh <- batch
		batch = make([]string, 0, m.cfg.BatchSize)
	}

	for {
		select {
		case line, ok := <-m.lineCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, line)
			if len(batch) >= m.cfg.BatchSize {
				flush()
				reset()
			}

		case <-timer.C:
			flush()
			timer.Reset(m.cfg.FlushInterval)
		}
	}
}

// uploadLoop 는 uploadCh 가 닫힐 때까지 배치를 업로드한다.
// DLQ 가 밀리지 않도록 배치마다, 그리고 idle 시 dlqInterval 마다 재업로드한다.
func (m *Manager) uploadLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(dlqInterval)
	defer ticker.Stop()

	for {
		select {
		case batch, ok := <-m.uploadCh:
			if !ok {
				m.log.Info().Msg("uploader exiting")
				return
			}
			m.processBatch(m.ctx, batch)
			m.processDLQ(m.ctx)

		case <-ticker.C:
			m.processDLQ(m.ctx)
		}
	}
}

func (m *Manager) processDLQ(ctx context.Context) {
	for i := 0; i < dlqFilesPerTurn; i++ {
		if !m.dlq.ProcessOneCtx(ctx) {
			return
		}
	}
}

// processBatch
//  1. gzip 인코딩 실패 → 평문 JSONL 을 DLQPrefix 로 (best-effort)
//  2. S3 업로드 실패 → 로컬 DLQ
//  3. 성공 → S3LinesStored
func (m *Manager) processBatch(ctx context.Context, lines []string) {
	if len(lines) == 0 {
		return
	}

	name := NewFilename(m.cfg.InstanceID)

	data, err := m.encoder.EncodeBatchJSONLGZ(lines)
	if err != nil {
		m.log.Error().Err(err).Int("lines", len(lines)).Msg("gzip encode failed, uploading plain batch to dlq prefix")
		key := BuildS3Key(m.cfg.DLQPrefix, name)
		if err := m.s3.UploadBytesWithRetryCtx(ctx, key, m.encoder.EncodeBatchJSONL(lines)); err != nil {
			m.log.Error().Err(err).Str("key", key).Msg("plain batch upload failed, lines lost")
		}
		return
	}

	key := BuildS3Key(m.cfg.RawPrefix, name)
	if err := m.s3.UploadBytesWithRetryCtx(ctx, key, data); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("s3 upload failed, saving to local dlq")
		if err := m.dlq.Save(data, len(lines)); err != nil {
			m.log.Error().Err(err).Msg("local dlq save failed")
		}
		return
	}
	m.metrics.S3LinesStored.Add(float64(len(lines)))
}

// String 은 시작 로그용 요약.
func (m *Manager) String() string {
	return fmt.Sprintf("s3://%s/%s (batch=%d, flush=%s)", m.cfg.Bucket, m.cfg.RawPrefix, m.cfg.BatchSize, m.cfg.FlushInterval)
}
