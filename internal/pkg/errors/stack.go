package errors

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// maxStackDepth 에러마다 기록하는 호출 지점의 최대 개수입니다.
const maxStackDepth = 8

// callers 에러 생성 지점의 프로그램 카운터 목록입니다.
// 파일과 줄 번호는 %+v로 출력할 때만 해석합니다.
type callers []uintptr

// capture New/Newf/Wrap을 호출한 곳부터 기록합니다.
// runtime.Callers, capture, 공개 생성 함수 세 단계를 건너뜁니다.
func capture() callers {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	return append(callers(nil), pcs[:n]...)
}

func (c callers) writeTo(w io.Writer) {
	if len(c) == 0 {
		return
	}

	frames := runtime.CallersFrames(c)
	for {
		f, more := frames.Next()
		fn := f.Function
		if i := strings.LastIndexByte(fn, '/'); i >= 0 {
			fn = fn[i+1:]
		}
		fmt.Fprintf(w, "\n\tat %s (%s:%d)", fn, filepath.Base(f.File), f.Line)
		if !more {
			return
		}
	}
}
