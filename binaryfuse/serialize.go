package binaryfuse

import (
	"encoding/binary"

	"github.com/tidesign/sieve"
)

// wireVersion is the single byte written ahead of every serialized
// BinaryFuse16, identifying the format below as big-endian version 1.
const wireVersion byte = 1

// headerSize is the fixed-size portion of the wire format: the version
// byte, seed, and the six uint32 size parameters.
const headerSize = 1 + 8 + 4*6

// SerializedSize returns the exact number of bytes Serialize will produce
// for f, without doing the work of serializing it.
func (f *BinaryFuse16) SerializedSize() int {
	return headerSize + len(f.fp)*2
}

// Serialize encodes f into the fixed big-endian wire format:
//
//	[version:u8][seed:u64][segmentLength:u32][segmentLengthMask:u32]
//	[segmentCount:u32][segmentCountLength:u32][arrayLength:u32][n:u32]
//	[slots: u16 × arrayLength]
//
// arrayLength is the fingerprint slot count (segmentCountLength + 2 *
// segmentLength); n is the number of keys the filter was built from, per
// spec.md §4.J's distinct arrayLength/n fields.
func (f *BinaryFuse16) Serialize() []byte {
	arrayLength := len(f.fp)
	buf := make([]byte, f.SerializedSize())
	buf[0] = wireVersion
	binary.BigEndian.PutUint64(buf[1:9], f.seed)
	binary.BigEndian.PutUint32(buf[9:13], f.segmentLength)
	binary.BigEndian.PutUint32(buf[13:17], f.segmentLengthMask)
	binary.BigEndian.PutUint32(buf[17:21], f.segmentCount)
	binary.BigEndian.PutUint32(buf[21:25], f.segmentCountLength)
	binary.BigEndian.PutUint32(buf[25:29], uint32(arrayLength))
	binary.BigEndian.PutUint32(buf[29:33], f.n)
	for i, v := range f.fp {
		off := headerSize + i*2
		binary.BigEndian.PutUint16(buf[off:off+2], v)
	}
	return buf
}

// Deserialize parses a BinaryFuse16 previously produced by Serialize. It
// returns sieve.ErrBufferTooSmall if buf is shorter than the format
// requires, or sieve.ErrInvalidArgument if the version byte is
// unrecognized.
func Deserialize(buf []byte) (*BinaryFuse16, error) {
	if len(buf) < headerSize {
		return nil, sieve.ErrBufferTooSmall
	}
	if buf[0] != wireVersion {
		return nil, sieve.ErrInvalidArgument
	}

	f := &BinaryFuse16{
		seed:               binary.BigEndian.Uint64(buf[1:9]),
		segmentLength:      binary.BigEndian.Uint32(buf[9:13]),
		segmentLengthMask:  binary.BigEndian.Uint32(buf[13:17]),
		segmentCount:       binary.BigEndian.Uint32(buf[17:21]),
		segmentCountLength: binary.BigEndian.Uint32(buf[21:25]),
	}
	arrayLength := binary.BigEndian.Uint32(buf[25:29])
	f.n = binary.BigEndian.Uint32(buf[29:33])

	want := headerSize + int(arrayLength)*2
	if len(buf) < want {
		return nil, sieve.ErrBufferTooSmall
	}

	f.fp = make([]uint16, arrayLength)
	for i := range f.fp {
		off := headerSize + i*2
		f.fp[i] = binary.BigEndian.Uint16(buf[off : off+2])
	}
	return f, nil
}
