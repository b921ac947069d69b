// Package idgen 도어 명령의 요청 ID를 생성합니다.
package idgen

import (
	"sync/atomic"
	"time"
)

// base62Chars ASCII 순서를 따르므로 생성된 ID의 문자열 정렬이 생성 시각 순서와 대략 일치합니다.
const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	base62Len = int64(len(base62Chars))
	seqDigits = 4
)

// Generator [접두어-][타임스탬프(Base62)][시퀀스(Base62, 4자리)] 형식의 요청 ID를 만듭니다.
// 예: "door-2Xk9pL3m0001"
//
// 여러 고루틴에서 동시에 사용해도 안전합니다.
type Generator struct {
	prefix  string
	counter atomic.Uint32
	now     func() time.Time
}

func New(prefix string) *Generator {
	return &Generator{prefix: prefix, now: time.Now}
}

// NewRequestID door.RequestIDGenerator를 구현합니다.
func (g *Generator) NewRequestID() string {
	ts := g.now().UnixNano()
	seq := int64(g.counter.Add(1) % uint32(base62Len*base62Len*base62Len*base62Len))

	b := make([]byte, 0, len(g.prefix)+1+11+seqDigits)
	if g.prefix != "" {
		b = append(b, g.prefix...)
		b = append(b, '-')
	}
	b = appendBase62(b, ts, 0)
	b = appendBase62(b, seq, seqDigits)

	return string(b)
}

// appendBase62 num을 Base62로 인코딩하여 덧붙입니다. width보다 짧으면 앞을 '0'으로 채웁니다.
func appendBase62(dst []byte, num int64, width int) []byte {
	if num < 0 {
		num = -num
	}

	var tmp [20]byte
	i := len(tmp)
	for num > 0 {
		i--
		tmp[i] = base62Chars[num%base62Len]
		num /= base62Len
	}
	for len(tmp)-i < width || i == len(tmp) {
		i--
		tmp[i] = base62Chars[0]
	}

	return append(dst, tmp[i:]...)
}
