package internal

import (
	"bytes"
	"runtime"
	"strconv"
)

// TaskID returns the runtime id of the calling goroutine. The simulated
// kernel equates tasks with goroutines, so this id is the task identity
// used for recursive-mutex ownership and ISR marking.
//
// The id is parsed from the first line of the stack dump
// ("goroutine 123 [running]:"), which is the only portable way to obtain
// it. The parse is cheap enough for a simulation kernel; real kernel
// bindings get the current task from the kernel instead.
func TaskID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// strip the "goroutine " prefix, the id runs up to the next space
	frame := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(frame, ' '); i > 0 {
		frame = frame[:i]
	}

	id, err := strconv.ParseUint(string(frame), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
