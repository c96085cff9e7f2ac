package wasmgen

import (
	"encoding/binary"
	"math"
)

// writer accumulates WebAssembly binary output. All integers use LEB128
// as the binary format requires.
type writer struct {
	buf []byte
}

func (w *writer) byte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) bytes(data []byte) {
	w.buf = append(w.buf, data...)
}

func (w *writer) uleb(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if v == 0 {
			return
		}
	}
}

func (w *writer) sleb(v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.buf = append(w.buf, b)
			return
		}
		w.buf = append(w.buf, b|0x80)
	}
}

// name writes a length-prefixed UTF-8 name.
func (w *writer) name(s string) {
	w.uleb(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// f64 writes the 8-byte little-endian immediate of an f64.const.
func (w *writer) f64(v float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	w.buf = append(w.buf, tmp[:]...)
}

// section appends a sized section.
func (w *writer) section(id byte, body []byte) {
	w.byte(id)
	w.uleb(uint64(len(body)))
	w.bytes(body)
}
