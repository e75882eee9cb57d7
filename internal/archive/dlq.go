// internal/archive/dlq.go
package archive

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"trino-query-log/internal/config"
	"trino-query-log/internal/metrics"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

// DLQManager
// ------------------------------------------------------------
// S3 업로드에 실패한 gzip JSONL 배치를 로컬 디스크에 저장하고
// 나중에 재업로드한다.
//
//   - 파일: <DLQDir>/<unix>_<instance>_<counter>.jsonl.gz
//   - 메타: 같은 이름 + ".meta.json" ({"num_lines":N})
//   - TTL: 파일명 prefix 의 Unix timestamp 기준 (DLQMaxAge)
//   - 용량: DLQMaxSizeBytes 초과 시 가장 오래된 파일부터 삭제
//
// uploadLoop goroutine 하나에서만 호출된다.
type DLQManager struct {
	cfg      config.ArchiveConfig
	metrics  *metrics.Metrics
	uploader *S3Uploader
	log      zerolog.Logger

	// now 는 TTL 판단용 현재 시각 (epoch seconds)
	now func() int64

	// DLQ 디렉토리의 data 파일 총 바이트 수
	sizeBytes atomic.Int64
}

type dlqMeta struct {
	NumLines int64 `json:"num_lines"`
}

// NewDLQManager 는 DLQ 디렉토리를 만들고 기존 파일을 스캔해
// 크기/파일 수 지표를 복원한다. data 없이 남은 meta 파일은 지운다.
func NewDLQManager(cfg config.ArchiveConfig, m *metrics.Metrics, uploader *S3Uploader, log zerolog.Logger) (*DLQManager, error) {
	if err := os.MkdirAll(cfg.DLQDir, 0o755); err != nil {
		return nil, fmt.Errorf("create dlq dir %s: %w", cfg.DLQDir, err)
	}

	d := &DLQManager{
		cfg:      cfg,
		metrics:  m,
		uploader: uploader,
		log:      log,
		now:      Unix,
	}

	entries, err := os.ReadDir(cfg.DLQDir)
	if err != nil {
		return nil, fmt.Errorf("scan dlq dir %s: %w", cfg.DLQDir, err)
	}

	var total, count int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		if strings.HasSuffix(name, metaSuffix) {
			dataName := strings.TrimSuffix(name, metaSuffix)
			if _, err := os.Stat(filepath.Join(cfg.DLQDir, dataName)); os.IsNotExist(err) {
				_ = os.Remove(filepath.Join(cfg.DLQDir, name))
			}
			continue
		}

		if info, err := e.Info(); err == nil {
			total += info.Size()
			count++
		}
	}

	d.sizeBytes.Store(total)
	m.DLQSizeBytes.Set(float64(total))
	m.DLQFilesCurrent.Set(float64(count))

	return d, nil
}

// SizeBytes 는 현재 DLQ data 파일 총 크기.
func (d *DLQManager) SizeBytes() int64 {
	return d.sizeBytes.Load()
}

// Save 는 업로드 실패한 배치를 저장한다.
// 용량을 확보하지 못하면 배치를 버리고 DLQLinesDropped 를 올린다. (error 아님)
func (d *DLQManager) Save(data []byte, numLines int) error {
	if len(data) == 0 || numLines <= 0 {
		return nil
	}

	size := int64(len(data))
	if !d.ensureCapacity(size) {
		d.log.Error().Int64("bytes", size).Int("lines", numLines).Msg("dlq full, batch dropped")
		d.metrics.DLQLinesDropped.Add(float64(numLines))
		return nil
	}

	dataPath := filepath.Join(d.cfg.DLQDir, NewFilename(d.cfg.InstanceID))
	metaPath := dataPath + metaSuffix

	if err := os.WriteFile(dataPath, data, 0o600); err != nil {
		return fmt.Errorf("write dlq file: %w", err)
	}

	meta, _ := json.Marshal(dlqMeta{NumLines: int64(numLines)})
	_ = os.WriteFile(metaPath, meta, 0o600)

	d.addSize(size)
	d.metrics.DLQFilesCurrent.Inc()
	d.metrics.DLQLinesEnqueued.Add(float64(numLines))
	return nil
}

// ensureCapacity 는 incoming 을 저장할 수 있을 때까지 가장 오래된 파일을 지운다.
// 지울 파일이 없는데도 부족하면 false.
func (d *DLQManager) ensureCapacity(incoming int64) bool {
	limit := d.cfg.DLQMaxSizeBytes
	if limit <= 0 {
		return true
	}

	for d.sizeBytes.Load()+incoming > limit {
		oldest := d.pickOldest()
		if oldest == "" {
			return false
		}
		d.remove(oldest)
		d.metrics.DLQFilesExpired.Inc()
		d.log.Warn().Str("file", oldest).Msg("dlq capacity, oldest file removed")
	}
	return true
}

// ProcessOneCtx 는 가장 오래된 파일 1개를 처리한다.
//   - TTL 초과: 삭제
//   - 첫 라인이 유효한 JSON: RawPrefix 로 재업로드
//   - 그 외: DLQPrefix 로 업로드
//
// 파일을 정리했으면 true. 비어있거나 업로드가 실패하면 false (이번 라운드 중단).
func (d *DLQManager) ProcessOneCtx(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	name := d.pickOldest()
	if name == "" {
		return false
	}

	dataPath := filepath.Join(d.cfg.DLQDir, name)
	metaPath := dataPath + metaSuffix

	info, err := os.Stat(dataPath)
	if err != nil {
		_ = os.Remove(metaPath)
		return true
	}
	size := info.Size()

	if d.cfg.DLQMaxAge > 0 {
		if sec, ok := extractUnixFromFilename(name); ok {
			age := time.Duration(d.now()-sec) * time.Second
			if age > d.cfg.DLQMaxAge {
				d.remove(name)
				d.metrics.DLQFilesExpired.Inc()
				d.log.Info().Str("file", name).Dur("age", age).Msg("dlq ttl expired, file removed")
				return true
			}
		}
	}

	f, err := os.Open(dataPath)
	if err != nil {
		d.log.Warn().Err(err).Str("file", name).Msg("dlq open failed")
		return false
	}
	defer f.Close()

	valid := validateFile(f, size)

	prefix := d.cfg.RawPrefix
	if !valid {
		prefix = d.cfg.DLQPrefix
	}
	key := BuildS3Key(prefix, name)

	if err := d.uploader.UploadFileWithRetryCtx(ctx, key, f, size); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("dlq reupload failed")
		return false
	}

	numLines := readNumLines(metaPath)
	d.remove(name)
	d.metrics.DLQLinesReuploaded.Add(float64(numLines))

	d.log.Info().
		Str("key", key).
		Int64("lines", numLines).
		Bool("valid", valid).
		Msg("dlq reupload success")
	return true
}

// remove 는 data/meta 파일을 지우고 지표를 갱신한다.
func (d *DLQManager) remove(name string) {
	dataPath := filepath.Join(d.cfg.DLQDir, name)
	if info, err := os.Stat(dataPath); err == nil {
		d.addSize(-info.Size())
	}
	_ = os.Remove(dataPath)
	_ = os.Remove(dataPath + metaSuffix)
	d.metrics.DLQFilesCurrent.Dec()
}

func (d *DLQManager) addSize(delta int64) {
	d.metrics.DLQSizeBytes.Set(float64(d.sizeBytes.Add(delta)))
}

// pickOldest 는 data 파일 중 이름 순(=시간 순)으로 가장 앞선 것.
// ReadDir 순서는 보장되지 않으므로 정렬한다.
func (d *DLQManager) pickOldest() string {
	entries, err := os.ReadDir(d.cfg.DLQDir)
	if err != nil {
		return ""
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "" || name[0] == '.' || strings.HasSuffix(name, metaSuffix) {
			continue
		}
		files = append(files, name)
	}
	if len(files) == 0 {
		return ""
	}

	sort.Strings(files)
	return files[0]
}

// validateFile 은 gzip 을 풀어 첫 라인이 JSON 객체인지 확인한다.
func validateFile(f io.ReadSeeker, size int64) bool {
	if size <= 0 {
		return false
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		return false
	}
	defer gz.Close()

	line, err := bufio.NewReader(gz).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return false
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return false
	}

	var tmp map[string]any
	return json.Unmarshal(line, &tmp) == nil
}

// readNumLines 는 meta 의 num_lines. 없거나 깨졌으면 1.
func readNumLines(metaPath string) int64 {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return 1
	}
	var m dlqMeta
	if json.Unmarshal(data, &m) != nil || m.NumLines <= 0 {
		return 1
	}
	return m.NumLines
}
