// Package truncate 는 로그에 기록되는 긴 SQL 텍스트를 줄이는 기능을 제공한다.
package truncate

import "strings"

// Unlimited 는 길이 제한 없음을 뜻하는 maxLength 값.
const Unlimited = -1

// Marker 는 잘린 위치에 삽입되는 문자열.
const Marker = " <truncated> "

// markerBudget
// ------------------------------------------------------------
// head/tail 길이를 계산할 때 maxLength 에서 빼는 값.
// Marker 는 13자이지만 기존 로그 포맷과의 호환을 위해 4 를 뺀다.
// 따라서 결과 길이는 maxLength 보다 9자 길어질 수 있다.
const markerBudget = 4

// Truncate 는 text 가 maxLength 보다 길면
// 앞 (maxLength-4)/2 글자 + Marker + 뒤 (maxLength-4)/2 글자로 줄인다.
//
//   - maxLength == Unlimited 이거나 길이가 maxLength 이하이면 그대로 반환
//   - 길이는 rune(코드포인트) 단위로 계산하므로 UTF-8 문자가 깨지지 않는다
//   - head/tail 길이가 음수가 되면 0 으로 clamp (panic 없음)
func Truncate(text string, maxLength int) string {
	if maxLength == Unlimited {
		return text
	}
	// 대부분의 쿼리는 ASCII 이므로 byte 길이로 먼저 빠르게 걸러낸다.
	if len(text) <= maxLength {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	keep := 0
	if maxLength > markerBudget {
		keep = (maxLength - markerBudget) / 2
	}

	var sb strings.Builder
	sb.Grow(2*keep + len(Marker))
	sb.WriteString(string(runes[:keep]))
	sb.WriteString(Marker)
	sb.WriteString(string(runes[len(runes)-keep:]))
	return sb.String()
}
