// Copyright 2025 The OpenMath Authors
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

// Package base64 implements the base64 codec used by the OpenMath OMB
// encodings.
//
// Both directions are streaming: the encoder and decoder hold at most
// one 3-byte (respectively 4-byte) group of state and never materialise
// the full input or output. Decoding is strict: the input length must
// be a multiple of four, only the base64 alphabet and trailing `=`
// padding are accepted, and every error identifies the offset of the
// offending byte.
package base64 // import "openmath.org/go/base64"

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const padChar = '='

// decodeMap maps a base64 code unit to its 6-bit value; 0xFF marks
// bytes outside the alphabet.
var decodeMap = func() (m [256]byte) {
	for i := range m {
		m[i] = 0xFF
	}
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = byte(i)
	}
	return m
}()

// ErrLength reports an input whose total length is not divisible by
// four.
var ErrLength = errors.New("base64: length not divisible by 4")

// A CharError reports a byte outside the base64 alphabet.
type CharError struct {
	Byte   byte
	Offset int64
}

func (e *CharError) Error() string {
	return fmt.Sprintf("base64: illegal character %q at offset %d", e.Byte, e.Offset)
}

// A PaddingError reports a non-padding byte after padding has begun.
type PaddingError struct {
	Offset int64
}

func (e *PaddingError) Error() string {
	return fmt.Sprintf("base64: character after padding at offset %d", e.Offset)
}

// EncodedLen returns the exact length of the base64 encoding of n
// input bytes: 4 * ceil(n/3).
func EncodedLen(n int) int { return (n + 2) / 3 * 4 }

// DecodedLen returns the maximum length of the decoding of n base64
// bytes. The final group may contribute fewer bytes when padded.
func DecodedLen(n int) int { return n / 4 * 3 }

// EncodeToString returns the base64 encoding of src.
func EncodeToString(src []byte) string {
	var b strings.Builder
	b.Grow(EncodedLen(len(src)))
	e := NewEncoder(&b)
	e.Write(src)
	e.Close()
	return b.String()
}

// DecodeString decodes the base64 string s.
func DecodeString(s string) ([]byte, error) {
	out := make([]byte, 0, DecodedLen(len(s)))
	d := NewDecoder(strings.NewReader(s))
	var buf [48]byte
	for {
		n, err := d.Read(buf[:])
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// NewEncoder returns a WriteCloser that base64-encodes everything
// written to it onto w. Closing flushes the final, possibly padded
// group; until then the encoder retains at most two buffered bytes.
func NewEncoder(w io.Writer) io.WriteCloser {
	return &encoder{w: w}
}

type encoder struct {
	w    io.Writer
	err  error
	buf  [3]byte
	nbuf int
}

func (e *encoder) Write(p []byte) (n int, err error) {
	if e.err != nil {
		return 0, e.err
	}
	written := 0

	// Complete a partial group left over from the previous write.
	if e.nbuf > 0 {
		for e.nbuf < 3 && len(p) > 0 {
			e.buf[e.nbuf] = p[0]
			e.nbuf++
			p = p[1:]
			written++
		}
		if e.nbuf < 3 {
			return written, nil
		}
		if err := e.emit(e.buf[0], e.buf[1], e.buf[2]); err != nil {
			return written, err
		}
		e.nbuf = 0
	}

	for len(p) >= 3 {
		if err := e.emit(p[0], p[1], p[2]); err != nil {
			return written, err
		}
		p = p[3:]
		written += 3
	}

	copy(e.buf[:], p)
	e.nbuf = len(p)
	return written + len(p), nil
}

func (e *encoder) emit(a, b, c byte) error {
	out := [4]byte{
		alphabet[a>>2],
		alphabet[(a<<4|b>>4)&0x3F],
		alphabet[(b<<2|c>>6)&0x3F],
		alphabet[c&0x3F],
	}
	_, err := e.w.Write(out[:])
	e.err = err
	return err
}

// Close flushes any buffered bytes, emitting the padded final group.
func (e *encoder) Close() error {
	if e.err != nil {
		return e.err
	}
	switch e.nbuf {
	case 0:
		return nil
	case 1:
		a := e.buf[0]
		out := [4]byte{alphabet[a>>2], alphabet[(a<<4)&0x3F], padChar, padChar}
		_, e.err = e.w.Write(out[:])
	case 2:
		a, b := e.buf[0], e.buf[1]
		out := [4]byte{alphabet[a>>2], alphabet[(a<<4|b>>4)&0x3F], alphabet[(b<<2)&0x3F], padChar}
		_, e.err = e.w.Write(out[:])
	}
	e.nbuf = 0
	return e.err
}

// NewDecoder returns a Reader that base64-decodes r. The reader
// returns ErrLength, *CharError or *PaddingError for invalid input;
// offsets refer to bytes of the encoded stream, starting at zero.
func NewDecoder(r io.Reader) io.Reader {
	return &decoder{r: r}
}

type decoder struct {
	r   io.Reader
	err error
	off int64 // offset of the next encoded byte

	pad bool // a padding byte has been seen (stream-wide)

	out    [3]byte // decoded bytes of the current group
	outLen int
	outPos int
}

func (d *decoder) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if d.outPos < d.outLen {
			k := copy(p[n:], d.out[d.outPos:d.outLen])
			d.outPos += k
			n += k
			continue
		}
		if d.err != nil {
			return n, d.err
		}
		if err := d.fill(); err != nil {
			d.err = err
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
	}
	return n, nil
}

// fill decodes the next 4-byte group into d.out.
func (d *decoder) fill() error {
	var quant [4]byte
	nq := 0
	for nq < 4 {
		b, err := d.readByte()
		if err == io.EOF {
			if nq == 0 {
				return io.EOF
			}
			return ErrLength
		}
		if err != nil {
			return err
		}
		quant[nq] = b
		nq++
	}

	npad := 0
	var v uint32
	for i, b := range quant {
		if b == padChar {
			d.pad = true
			npad++
			v <<= 6
			continue
		}
		if d.pad {
			return &PaddingError{Offset: d.off - int64(4-i)}
		}
		x := decodeMap[b]
		if x == 0xFF {
			return &CharError{Byte: b, Offset: d.off - int64(4-i)}
		}
		v = v<<6 | uint32(x)
	}

	d.out[0] = byte(v >> 16)
	d.out[1] = byte(v >> 8)
	d.out[2] = byte(v)
	d.outLen = 3 - npad
	if d.outLen < 0 {
		d.outLen = 0
	}
	d.outPos = 0
	return nil
}

func (d *decoder) readByte() (byte, error) {
	var b [1]byte
	for {
		n, err := d.r.Read(b[:])
		if n == 1 {
			d.off++
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}
