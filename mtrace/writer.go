// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package mtrace // import "github.com/mtrace-tools/lockinfer/mtrace"

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer encodes records into a log.
type Writer struct {
	zw  io.WriteCloser
	bw  *bufio.Writer
	buf []byte
}

// NewWriter returns a Writer producing a log compressed with c on w. Close
// must be called to flush the log; it does not close w.
func NewWriter(w io.Writer, c Compression) (*Writer, error) {
	zw, err := compress(w, c)
	if err != nil {
		return nil, err
	}
	return &Writer{zw: zw, bw: bufio.NewWriterSize(zw, 64<<10)}, nil
}

// Write appends e to the log.
func (w *Writer) Write(e *Entry) error {
	size := headerSize
	switch e.Kind {
	case KindLabel:
		size += labelPayloadSize
	case KindAccess:
		size += accessPayloadSize
	case KindLock:
		size += lockPayloadSize
	default:
		size += len(e.Raw)
	}
	if size > maxRecordSize {
		return fmt.Errorf("%s record of %d bytes exceeds maximum size", e.Kind, size)
	}

	if cap(w.buf) < size {
		w.buf = make([]byte, size)
	}
	b := w.buf[:size]
	clear(b)

	le := binary.LittleEndian
	b[0] = byte(e.Kind)
	le.PutUint16(b[2:], e.CPU)
	le.PutUint32(b[4:], uint32(size))
	le.PutUint64(b[8:], e.AccessCount)

	p := b[headerSize:]
	switch e.Kind {
	case KindLabel:
		p[0] = e.Label.LabelType
		le.PutUint64(p[8:], uint64(e.Label.GuestAddr))
		le.PutUint64(p[16:], e.Label.HostAddr)
		le.PutUint64(p[24:], e.Label.Bytes)
		copy(p[32:32+strSize], e.Label.Str)
	case KindAccess:
		p[0] = e.Access.AccessType
		le.PutUint64(p[8:], uint64(e.Access.PC))
		le.PutUint64(p[16:], uint64(e.Access.GuestAddr))
		le.PutUint64(p[24:], e.Access.Bytes)
	case KindLock:
		if e.Lock.Release {
			p[0] = 1
		}
		if e.Lock.Read {
			p[1] = 1
		}
		le.PutUint64(p[8:], uint64(e.Lock.PC))
		le.PutUint64(p[16:], uint64(e.Lock.Lock))
		copy(p[24:24+strSize], e.Lock.Str)
	default:
		copy(p, e.Raw)
	}

	_, err := w.bw.Write(b)
	return err
}

// Close flushes all buffered records and finishes the compressed stream.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return w.zw.Close()
}
