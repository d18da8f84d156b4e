// Package mempool recycles scratch slices used by the per-pixel filters.
package mempool

import "sync"

const classStep = 1024

// sizeClass rounds n up to a multiple of classStep, with a floor of one step.
func sizeClass(n int) int {
	if n <= classStep {
		return classStep
	}
	return (n + classStep - 1) / classStep * classStep
}

type slicePool[T any] struct {
	classes sync.Map // size class -> *sync.Pool
}

func (sp *slicePool[T]) pool(cls int) *sync.Pool {
	p, _ := sp.classes.LoadOrStore(cls, &sync.Pool{New: func() any {
		s := make([]T, cls)
		return &s
	}})
	return p.(*sync.Pool) //nolint:forcetypeassert
}

func (sp *slicePool[T]) get(n int) []T {
	cls := sizeClass(n)
	buf := *(sp.pool(cls).Get().(*[]T)) //nolint:forcetypeassert
	if cap(buf) < cls {
		buf = make([]T, cls)
	}
	return buf[:n]
}

func (sp *slicePool[T]) put(buf []T) {
	if cap(buf) == 0 {
		return
	}
	// Only exact size classes go back, so every pooled slice fits its class.
	cls := cap(buf)
	if cls != sizeClass(cls) {
		return
	}
	buf = buf[:cls]
	sp.pool(cls).Put(&buf)
}

var (
	float32s slicePool[float32]
	bools    slicePool[bool]
	ints     slicePool[int]
)

// GetFloat32 returns a slice of length n with unspecified contents.
// Return it with PutFloat32.
func GetFloat32(n int) []float32 { return float32s.get(n) }

// PutFloat32 recycles buf. A nil slice is ignored.
func PutFloat32(buf []float32) { float32s.put(buf) }

// GetBool returns a zeroed slice of length n. Return it with PutBool.
func GetBool(n int) []bool {
	buf := bools.get(n)
	clear(buf)
	return buf
}

// PutBool recycles buf.
func PutBool(buf []bool) { bools.put(buf) }

// GetInt returns a zeroed slice of length n. Return it with PutInt.
func GetInt(n int) []int {
	buf := ints.get(n)
	clear(buf)
	return buf
}

// PutInt recycles buf.
func PutInt(buf []int) { ints.put(buf) }
