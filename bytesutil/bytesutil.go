// Package bytesutil provides small serialisation helpers for blob payloads:
// zig-zag integer encoding, the 7-bit variable-length quantity form of
// zig-zag encoded integers, and length-prefixed UTF-8 strings.
package bytesutil

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrOverlongVarint reports a 7-bit encoding carrying more value bits than
// fit in 64 bits.
var ErrOverlongVarint = errors.New("bytesutil: varint exceeds 64 bits")

// EncodeZigZag32 zig-zag encodes a 32-bit integer, mapping small magnitudes
// of either sign to small unsigned values.
func EncodeZigZag32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

// DecodeZigZag32 reverses EncodeZigZag32.
func DecodeZigZag32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// EncodeZigZag64 zig-zag encodes a 64-bit integer.
func EncodeZigZag64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// DecodeZigZag64 reverses EncodeZigZag64.
func DecodeZigZag64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// Write7BitInt zig-zag encodes v and writes it as a 7-bit variable-length
// quantity: seven value bits per byte, high bit set on all but the last.
func Write7BitInt(w io.ByteWriter, v int32) error {
	return write7Bit(w, uint64(EncodeZigZag32(v)))
}

// Read7BitInt reads a value written by Write7BitInt.
func Read7BitInt(r io.ByteReader) (int32, error) {
	u, err := read7Bit(r)
	if err != nil {
		return 0, err
	}
	return DecodeZigZag32(uint32(u)), nil
}

// Write7BitLong zig-zag encodes v and writes it as a 7-bit variable-length
// quantity.
func Write7BitLong(w io.ByteWriter, v int64) error {
	return write7Bit(w, EncodeZigZag64(v))
}

// Read7BitLong reads a value written by Write7BitLong.
func Read7BitLong(r io.ByteReader) (int64, error) {
	u, err := read7Bit(r)
	if err != nil {
		return 0, err
	}
	return DecodeZigZag64(u), nil
}

func write7Bit(w io.ByteWriter, u uint64) error {
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		if u == 0 {
			return nil
		}
	}
}

func read7Bit(r io.ByteReader) (uint64, error) {
	var value uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		// The tenth byte holds only the top bit of a 64-bit value; anything
		// past that cannot be represented.
		if shift > 63 || (shift == 63 && b&0x7f > 1) {
			return 0, ErrOverlongVarint
		}
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, nil
		}
		shift += 7
	}
}

// WriteStringUTF8 writes s as a big-endian 4-byte length prefix followed by
// the string's UTF-8 bytes.
func WriteStringUTF8(w io.Writer, s string) error {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	if _, err := w.Write(n[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadStringUTF8 reads a string written by WriteStringUTF8.
func ReadStringUTF8(r io.Reader) (string, error) {
	var n [4]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return "", err
	}
	b := make([]byte, binary.BigEndian.Uint32(n[:]))
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
