// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package mtrace // import "github.com/mtrace-tools/lockinfer/mtrace"

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	npsr "github.com/mtrace-tools/lockinfer/nopanicslicereader"
)

// ErrMalformed is returned for records that cannot be decoded.
var ErrMalformed = errors.New("malformed mtrace record")

// Reader decodes records from a log. It is a forward-only, lazy sequence:
// records are decoded one at a time as Next is called.
type Reader struct {
	r           *bufio.Reader
	compression Compression
	release     func()
	closer      io.Closer

	hdr     [headerSize]byte
	payload []byte
	offset  uint64
}

// NewReader prepares to read a log from r, detecting its compression.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	c := detect(br)
	dr, release, err := decompress(br, c)
	if err != nil {
		return nil, err
	}
	src := br
	if c != None {
		src = bufio.NewReaderSize(dr, 64<<10)
	}
	return &Reader{
		r:           src,
		compression: c,
		release:     release,
	}, nil
}

// Open opens the log at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// Compression returns the detected container of the log.
func (r *Reader) Compression() Compression {
	return r.compression
}

// Offset returns the uncompressed offset of the next record.
func (r *Reader) Offset() uint64 {
	return r.offset
}

// Close releases the decoder and, for readers created by Open, the file.
func (r *Reader) Close() error {
	r.release()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Next populates e with the next record of the log. It returns io.EOF if
// there are no more records, or an error wrapping ErrMalformed if a record
// is truncated or corrupt. Raw payloads of unknown records are only valid
// until the next call.
func (r *Reader) Next(e *Entry) error {
	n, err := io.ReadFull(r.r, r.hdr[:])
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: truncated header at offset %d (%d bytes)",
				ErrMalformed, r.offset, n)
		}
		return err
	}

	hdr := r.hdr[:]
	e.Kind = Kind(npsr.Uint8(hdr, 0))
	e.CPU = npsr.Uint16(hdr, 2)
	size := npsr.Uint32(hdr, 4)
	e.AccessCount = npsr.Uint64(hdr, 8)

	if size < headerSize || size > maxRecordSize {
		return fmt.Errorf("%w: bad size %d of %s record at offset %d",
			ErrMalformed, size, e.Kind, r.offset)
	}
	plen := int(size - headerSize)
	if cap(r.payload) < plen {
		r.payload = make([]byte, plen)
	}
	r.payload = r.payload[:plen]
	if _, err = io.ReadFull(r.r, r.payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: truncated %s record at offset %d",
				ErrMalformed, e.Kind, r.offset)
		}
		return err
	}

	if err = r.decodePayload(e); err != nil {
		return err
	}
	r.offset += uint64(size)
	return nil
}

func (r *Reader) decodePayload(e *Entry) error {
	p := r.payload
	need := 0
	switch e.Kind {
	case KindLabel:
		need = labelPayloadSize
	case KindAccess:
		need = accessPayloadSize
	case KindLock:
		need = lockPayloadSize
	default:
		e.Raw = p
		return nil
	}
	if len(p) < need {
		return fmt.Errorf("%w: %s record at offset %d has %d payload bytes, need %d",
			ErrMalformed, e.Kind, r.offset, len(p), need)
	}

	e.Raw = nil
	switch e.Kind {
	case KindLabel:
		e.Label = LabelEntry{
			LabelType: npsr.Uint8(p, 0),
			GuestAddr: npsr.Ptr(p, 8),
			HostAddr:  npsr.Uint64(p, 16),
			Bytes:     npsr.Uint64(p, 24),
			Str:       npsr.CString(p, 32, strSize),
		}
	case KindAccess:
		e.Access = AccessEntry{
			AccessType: npsr.Uint8(p, 0),
			PC:         npsr.Ptr(p, 8),
			GuestAddr:  npsr.Ptr(p, 16),
			Bytes:      npsr.Uint64(p, 24),
		}
	case KindLock:
		e.Lock = LockEntry{
			Release: npsr.Bool(p, 0),
			Read:    npsr.Bool(p, 1),
			PC:      npsr.Ptr(p, 8),
			Lock:    npsr.Ptr(p, 16),
			Str:     npsr.CString(p, 24, strSize),
		}
	}
	return nil
}
