// internal/config/properties.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// listener 설정 키. 기존 이벤트 리스너 설정 파일과 호환되도록 이름을 유지한다.
const (
	KeyConfigFileLocation             = "trino.query.log.config.fileLocation"
	KeySplitCompleted                 = "trino.query.log.log.splitCompletedEvent"
	KeyQueryCreated                   = "trino.query.log.log.queryCreatedEvent"
	KeyQueryCreatedQueryTypePattern   = "trino.query.log.log.queryCreatedEvent.queryTypePattern"
	KeyQueryCreatedQueryMaxLength     = "trino.query.log.log.queryCreatedEvent.queryMaxLength"
	KeyQueryCompleted                 = "trino.query.log.log.queryCompletedEvent"
	KeyQueryCompletedQueryTypePattern = "trino.query.log.log.queryCompletedEvent.queryTypePattern"
	KeyQueryCompletedQueryMaxLength   = "trino.query.log.log.queryCompletedEvent.queryMaxLength"
	KeyQueryCompletedCatalogPattern   = "trino.query.log.log.queryCompletedEvent.catalogPattern"
)

const (
	DefaultConfigFileLocation = "etc/event-listener-trino-query-log-sink.yaml"
	DefaultPattern            = ".*"
	DefaultQueryMaxLength     = -1
)

// Properties
//
// listener 필터 설정의 typed view.
// ParseProperties 로만 만들어지며 이후 변경되지 않는다.
// 여러 엔진 스레드가 동시에 읽어도 안전하다 (regexp.Regexp 는 goroutine-safe).
type Properties struct {
	ConfigFileLocation string // sink 설정(YAML) 경로

	SplitCompleted bool

	QueryCreated                 bool
	QueryCreatedQueryTypePattern *regexp.Regexp
	QueryCreatedQueryMaxLength   int

	QueryCompleted                 bool
	QueryCompletedQueryTypePattern *regexp.Regexp
	QueryCompletedQueryMaxLength   int
	QueryCompletedCatalogPattern   *regexp.Regexp
}

// DefaultMap 는 모든 키에 기본값을 채운 설정 map.
func DefaultMap() map[string]string {
	return map[string]string{
		KeyConfigFileLocation:             DefaultConfigFileLocation,
		KeySplitCompleted:                 "true",
		KeyQueryCreated:                   "true",
		KeyQueryCreatedQueryTypePattern:   DefaultPattern,
		KeyQueryCreatedQueryMaxLength:     strconv.Itoa(DefaultQueryMaxLength),
		KeyQueryCompleted:                 "true",
		KeyQueryCompletedQueryTypePattern: DefaultPattern,
		KeyQueryCompletedQueryMaxLength:   strconv.Itoa(DefaultQueryMaxLength),
		KeyQueryCompletedCatalogPattern:   DefaultPattern,
	}
}

// DefaultProperties 는 DefaultMap 으로 만든 Properties.
func DefaultProperties() Properties {
	p, err := ParseProperties(DefaultMap())
	if err != nil {
		// 기본값은 항상 유효해야 한다
		panic(err)
	}
	return p
}

// ParseProperties
//
// raw key/value 설정을 검증하고 Properties 로 변환한다.
//   - KeyConfigFileLocation 은 필수 (없으면 error)
//   - 나머지 키는 비어있거나 공백뿐이면 기본값
//   - bool / int 형식 오류, 잘못된 정규식은 error
//
// 정규식은 전체 일치(full-match)로 동작하도록 ^(?:...)$ 로 감싸서 컴파일한다.
func ParseProperties(raw map[string]string) (Properties, error) {
	var p Properties

	loc, ok := lookup(raw, KeyConfigFileLocation)
	if !ok {
		return Properties{}, fmt.Errorf("%s is empty", KeyConfigFileLocation)
	}
	p.ConfigFileLocation = loc

	var err error
	if p.SplitCompleted, err = boolProp(raw, KeySplitCompleted, true); err != nil {
		return Properties{}, err
	}
	if p.QueryCreated, err = boolProp(raw, KeyQueryCreated, true); err != nil {
		return Properties{}, err
	}
	if p.QueryCreatedQueryTypePattern, err = patternProp(raw, KeyQueryCreatedQueryTypePattern); err != nil {
		return Properties{}, err
	}
	if p.QueryCreatedQueryMaxLength, err = intProp(raw, KeyQueryCreatedQueryMaxLength, DefaultQueryMaxLength); err != nil {
		return Properties{}, err
	}
	if p.QueryCompleted, err = boolProp(raw, KeyQueryCompleted, true); err != nil {
		return Properties{}, err
	}
	if p.QueryCompletedQueryTypePattern, err = patternProp(raw, KeyQueryCompletedQueryTypePattern); err != nil {
		return Properties{}, err
	}
	if p.QueryCompletedQueryMaxLength, err = intProp(raw, KeyQueryCompletedQueryMaxLength, DefaultQueryMaxLength); err != nil {
		return Properties{}, err
	}
	if p.QueryCompletedCatalogPattern, err = patternProp(raw, KeyQueryCompletedCatalogPattern); err != nil {
		return Properties{}, err
	}
	return p, nil
}

// LoadPropertiesFile
//
// flat YAML 매핑 파일을 읽어 ParseProperties 에 넘긴다.
//
//	trino.query.log.config.fileLocation: etc/sink.yaml
//	trino.query.log.log.queryCreatedEvent: false
//
// YAML 이 bool/int 로 해석한 값도 문자열로 바꿔서 처리한다.
func LoadPropertiesFile(path string) (Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Properties{}, fmt.Errorf("read listener config %s: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Properties{}, fmt.Errorf("parse listener config %s: %w", path, err)
	}
	raw := make(map[string]string, len(doc))
	for k, v := range doc {
		if v == nil {
			continue
		}
		raw[k] = fmt.Sprint(v)
	}
	p, err := ParseProperties(raw)
	if err != nil {
		return Properties{}, fmt.Errorf("listener config %s: %w", path, err)
	}
	return p, nil
}

// String 은 `check` 명령과 로그에서 유효 설정을 보여줄 때 사용한다.
func (p Properties) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s=%s\n", KeyConfigFileLocation, p.ConfigFileLocation)
	fmt.Fprintf(&sb, "%s=%t\n", KeySplitCompleted, p.SplitCompleted)
	fmt.Fprintf(&sb, "%s=%t\n", KeyQueryCreated, p.QueryCreated)
	fmt.Fprintf(&sb, "%s=%s\n", KeyQueryCreatedQueryTypePattern, rawPattern(p.QueryCreatedQueryTypePattern))
	fmt.Fprintf(&sb, "%s=%d\n", KeyQueryCreatedQueryMaxLength, p.QueryCreatedQueryMaxLength)
	fmt.Fprintf(&sb, "%s=%t\n", KeyQueryCompleted, p.QueryCompleted)
	fmt.Fprintf(&sb, "%s=%s\n", KeyQueryCompletedQueryTypePattern, rawPattern(p.QueryCompletedQueryTypePattern))
	fmt.Fprintf(&sb, "%s=%d\n", KeyQueryCompletedQueryMaxLength, p.QueryCompletedQueryMaxLength)
	fmt.Fprintf(&sb, "%s=%s\n", KeyQueryCompletedCatalogPattern, rawPattern(p.QueryCompletedCatalogPattern))
	return sb.String()
}

// lookup 은 값이 있고 공백이 아닐 때만 ok.
func lookup(raw map[string]string, key string) (string, bool) {
	v, ok := raw[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func boolProp(raw map[string]string, key string, def bool) (bool, error) {
	v, ok := lookup(raw, key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid bool %s=%q: %w", key, v, err)
	}
	return b, nil
}

func intProp(raw map[string]string, key string, def int) (int, error) {
	v, ok := lookup(raw, key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid int %s=%q: %w", key, v, err)
	}
	return n, nil
}

func patternProp(raw map[string]string, key string) (*regexp.Regexp, error) {
	v, ok := lookup(raw, key)
	if !ok {
		v = DefaultPattern
	}
	re, err := regexp.Compile(`^(?:` + v + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s=%q: %w", key, v, err)
	}
	return re, nil
}

// rawPattern 은 patternProp 이 붙인 ^(?: ... )$ 를 떼어낸다.
func rawPattern(re *regexp.Regexp) string {
	if re == nil {
		return ""
	}
	s := re.String()
	s = strings.TrimPrefix(s, `^(?:`)
	s = strings.TrimSuffix(s, `)$`)
	return s
}
