// Package osc encodes and decodes OSC 1.0 messages and carries them over
// UDP datagrams or SLIP-framed TCP streams.
package osc

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

type Message struct {
	Address string
	Args    []any
}

func (m Message) String() string {
	var b strings.Builder
	b.WriteString(m.Address)
	for _, a := range m.Args {
		fmt.Fprintf(&b, " %v", a)
	}
	return b.String()
}

// Int returns argument i as an int if it is any integer type.
func (m Message) Int(i int) (int, bool) {
	if i >= len(m.Args) {
		return 0, false
	}
	switch v := m.Args[i].(type) {
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	}
	return 0, false
}

func (m Message) Str(i int) (string, bool) {
	if i >= len(m.Args) {
		return "", false
	}
	s, ok := m.Args[i].(string)
	return s, ok
}

func pad(n int) int {
	return (4 - n%4) % 4
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	buf = append(buf, 0)
	for range pad(len(s) + 1) {
		buf = append(buf, 0)
	}
	return buf
}

// Encode builds a message. int is sent as int32 and float64 as float32,
// which is what most receivers expect.
func Encode(addr string, args ...any) []byte {
	buf := appendString(nil, addr)

	tags := []byte{','}
	for _, arg := range args {
		switch v := arg.(type) {
		case int, int32:
			tags = append(tags, 'i')
		case float32, float64:
			tags = append(tags, 'f')
		case string:
			tags = append(tags, 's')
		case []byte:
			tags = append(tags, 'b')
		case int64:
			tags = append(tags, 'h')
		case bool:
			if v {
				tags = append(tags, 'T')
			} else {
				tags = append(tags, 'F')
			}
		}
	}
	buf = appendString(buf, string(tags))

	for _, arg := range args {
		switch v := arg.(type) {
		case int:
			buf = binary.BigEndian.AppendUint32(buf, uint32(int32(v)))
		case int32:
			buf = binary.BigEndian.AppendUint32(buf, uint32(v))
		case float32:
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v))
		case float64:
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(v)))
		case string:
			buf = appendString(buf, v)
		case []byte:
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
			buf = append(buf, v...)
			for range pad(len(v)) {
				buf = append(buf, 0)
			}
		case int64:
			buf = binary.BigEndian.AppendUint64(buf, uint64(v))
		}
	}
	return buf
}

func readString(data []byte, pos int) (string, int, error) {
	end := pos
	for end < len(data) && data[end] != 0 {
		end++
	}
	if end >= len(data) {
		return "", pos, fmt.Errorf("osc: unterminated string")
	}
	return string(data[pos:end]), end + 1 + pad(end-pos+1), nil
}

func Decode(data []byte) (Message, error) {
	var m Message
	if len(data) < 4 {
		return m, fmt.Errorf("osc: message too short")
	}
	if data[0] == '#' {
		return m, fmt.Errorf("osc: bundles not supported")
	}

	addr, pos, err := readString(data, 0)
	if err != nil {
		return m, err
	}
	m.Address = addr
	if pos >= len(data) || data[pos] != ',' {
		return m, nil
	}
	tags, pos, err := readString(data, pos)
	if err != nil {
		return m, err
	}

	for _, t := range tags[1:] {
		switch t {
		case 'i':
			if pos+4 > len(data) {
				return m, fmt.Errorf("osc: truncated int32")
			}
			m.Args = append(m.Args, int32(binary.BigEndian.Uint32(data[pos:])))
			pos += 4
		case 'f':
			if pos+4 > len(data) {
				return m, fmt.Errorf("osc: truncated float32")
			}
			m.Args = append(m.Args, math.Float32frombits(binary.BigEndian.Uint32(data[pos:])))
			pos += 4
		case 's':
			var s string
			s, pos, err = readString(data, pos)
			if err != nil {
				return m, err
			}
			m.Args = append(m.Args, s)
		case 'b':
			if pos+4 > len(data) {
				return m, fmt.Errorf("osc: truncated blob size")
			}
			size := int(binary.BigEndian.Uint32(data[pos:]))
			pos += 4
			if pos+size > len(data) {
				return m, fmt.Errorf("osc: truncated blob")
			}
			m.Args = append(m.Args, append([]byte(nil), data[pos:pos+size]...))
			pos += size + pad(size)
		case 'h':
			if pos+8 > len(data) {
				return m, fmt.Errorf("osc: truncated int64")
			}
			m.Args = append(m.Args, int64(binary.BigEndian.Uint64(data[pos:])))
			pos += 8
		case 'd':
			if pos+8 > len(data) {
				return m, fmt.Errorf("osc: truncated float64")
			}
			m.Args = append(m.Args, math.Float64frombits(binary.BigEndian.Uint64(data[pos:])))
			pos += 8
		case 'T':
			m.Args = append(m.Args, true)
		case 'F':
			m.Args = append(m.Args, false)
		case 'N':
			m.Args = append(m.Args, nil)
		default:
			return m, fmt.Errorf("osc: unknown type tag %q", t)
		}
	}
	return m, nil
}
