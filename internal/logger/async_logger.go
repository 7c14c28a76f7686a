// Copyright 2025 The WizMini Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncLogger wraps a writer (typically a lumberjack.Logger rotating
// the debug log file) with a buffered channel so that a burst of log
// calls from the index worker or search worker never blocks the
// caller on disk I/O. When the buffer is full, messages are dropped
// rather than applying back-pressure — the debug log is best-effort.
type AsyncLogger struct {
	w    io.WriteCloser
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func NewAsyncLogger(w io.WriteCloser, bufferSize int) *AsyncLogger {
	l := &AsyncLogger{
		w:    w,
		ch:   make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *AsyncLogger) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)

	select {
	case l.ch <- buf:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

func (l *AsyncLogger) run() {
	defer close(l.done)
	for buf := range l.ch {
		if _, err := l.w.Write(buf); err != nil {
			return
		}
	}
}

// Close stops accepting writes, drains what's already queued, and
// closes the underlying writer.
func (l *AsyncLogger) Close() error {
	l.once.Do(func() {
		close(l.ch)
	})
	<-l.done
	return l.w.Close()
}
