// Package replay 는 저장해 둔 이벤트 파일(NDJSON envelope)을 listener 로 다시 흘려보낸다.
//
// 한 줄 형식:
//
//	{"kind":"queryCompleted","event":{...}}
//
// 필터 설정을 바꿨을 때 과거 이벤트로 출력 결과를 확인하거나,
// 유실된 구간의 로그를 다시 만드는 용도.
package replay

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"

	"trino-query-log/internal/listener"
	"trino-query-log/internal/model"

	"github.com/bmatcuk/doublestar/v4"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// maxLineSize 는 envelope 한 줄의 최대 크기. plan 이 포함된 QueryCompleted 는 수 MB 가 된다.
const maxLineSize = 16 << 20

// Stats 는 replay 결과 집계.
type Stats struct {
	Files     int
	Delivered int
	Skipped   int
}

// Run
// ------------------------------------------------------------
// patterns(doublestar glob, 예: "events/**/*.ndjson")에 걸리는 파일을
// 경로 순으로 열어 한 줄씩 l 에 전달한다.
//
//   - 아무 파일도 걸리지 않으면 error
//   - 파일 열기/읽기 실패는 error (그때까지의 Stats 와 함께)
//   - 깨진 줄은 건너뛰고 Skipped 로 센다
//   - ctx 가 끝나면 다음 줄을 읽기 전에 중단
func Run(ctx context.Context, l listener.EventListener, patterns []string, log zerolog.Logger) (Stats, error) {
	files, err := expand(patterns)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	for _, path := range files {
		if err := runFile(ctx, l, path, &st, log); err != nil {
			return st, err
		}
		st.Files++
	}
	return st, nil
}

// expand 는 glob 을 풀고 중복을 제거해 정렬한다.
func expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %v", patterns)
	}

	sort.Strings(files)
	return files, nil
}

func runFile(ctx context.Context, l listener.EventListener, path string, st *Stats, log zerolog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++

		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		if err := deliverLine(l, line); err != nil {
			st.Skipped++
			log.Warn().Err(err).Str("file", path).Int("line", lineNo).Msg("skip malformed envelope")
			continue
		}
		st.Delivered++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func deliverLine(l listener.EventListener, line []byte) error {
	var env model.Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	kind, err := model.ParseKind(string(env.Kind))
	if err != nil {
		return err
	}
	if len(env.Event) == 0 {
		return fmt.Errorf("%s envelope has no event", kind)
	}
	return listener.Deliver(l, kind, env.Event)
}
