package serialization

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rishav/algo-engine/internal/apperrors"
)

// fieldType tags the wire representation of one field's value.
type fieldType uint8

const (
	fieldNull fieldType = iota
	fieldString
	fieldInt64
	fieldBool
	fieldBytes // nested record
)

// Record is the schema-less, self-describing wire representation: a
// discriminator naming the concrete type plus an ordered list of
// string-keyed fields. Absent/null fields are encoded explicitly as
// fieldNull rather than omitted, so decode can distinguish "field not
// applicable" from "field omitted by a buggy encoder".
type Record struct {
	Discriminator string
	keys          []string
	values        map[string]fieldValue
}

type fieldValue struct {
	typ fieldType
	s   string
	i   int64
	b   bool
	rec *Record
}

func NewRecord(discriminator string) *Record {
	return &Record{Discriminator: discriminator, values: make(map[string]fieldValue)}
}

func (r *Record) set(key string, v fieldValue) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r *Record) PutString(key, v string) { r.set(key, fieldValue{typ: fieldString, s: v}) }
func (r *Record) PutInt64(key string, v int64) { r.set(key, fieldValue{typ: fieldInt64, i: v}) }
func (r *Record) PutBool(key string, v bool)   { r.set(key, fieldValue{typ: fieldBool, b: v}) }
func (r *Record) PutRecord(key string, v *Record) {
	if v == nil {
		r.set(key, fieldValue{typ: fieldNull})
		return
	}
	r.set(key, fieldValue{typ: fieldBytes, rec: v})
}
func (r *Record) PutNull(key string) { r.set(key, fieldValue{typ: fieldNull}) }

func (r *Record) GetString(key string) (string, bool) {
	v, ok := r.values[key]
	if !ok || v.typ != fieldString {
		return "", false
	}
	return v.s, true
}

func (r *Record) GetInt64(key string) (int64, bool) {
	v, ok := r.values[key]
	if !ok || v.typ != fieldInt64 {
		return 0, false
	}
	return v.i, true
}

func (r *Record) GetBool(key string) (bool, bool) {
	v, ok := r.values[key]
	if !ok || v.typ != fieldBool {
		return false, false
	}
	return v.b, true
}

func (r *Record) GetRecord(key string) (*Record, bool) {
	v, ok := r.values[key]
	if !ok || v.typ != fieldBytes {
		return nil, false
	}
	return v.rec, true
}

func (r *Record) IsNull(key string) bool {
	v, ok := r.values[key]
	return !ok || v.typ == fieldNull
}

// Encode writes the self-describing binary form.
func (r *Record) Encode() []byte {
	var buf bytes.Buffer
	writeLenString(&buf, r.Discriminator)
	writeUint16(&buf, uint16(len(r.keys)))
	for _, key := range r.keys {
		v := r.values[key]
		writeLenString(&buf, key)
		buf.WriteByte(byte(v.typ))
		switch v.typ {
		case fieldNull:
		case fieldString:
			writeLenString(&buf, v.s)
		case fieldInt64:
			var tmp [8]byte
			binary.BigEndian.PutUint64(tmp[:], uint64(v.i))
			buf.Write(tmp[:])
		case fieldBool:
			if v.b {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		case fieldBytes:
			nested := v.rec.Encode()
			writeUint32(&buf, uint32(len(nested)))
			buf.Write(nested)
		}
	}
	return buf.Bytes()
}

// Decode parses bytes previously produced by Encode.
func Decode(data []byte) (*Record, error) {
	buf := bytes.NewReader(data)
	return decodeRecord(buf)
}

func decodeRecord(buf *bytes.Reader) (*Record, error) {
	disc, err := readLenString(buf)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindSerialization, "truncated discriminator", err)
	}
	r := NewRecord(disc)

	count, err := readUint16(buf)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindSerialization, "truncated field count", err)
	}
	for i := uint16(0); i < count; i++ {
		key, err := readLenString(buf)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindSerialization, "truncated field key", err)
		}
		typByte, err := buf.ReadByte()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindSerialization, "truncated field type", err)
		}
		typ := fieldType(typByte)
		switch typ {
		case fieldNull:
			r.set(key, fieldValue{typ: fieldNull})
		case fieldString:
			s, err := readLenString(buf)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.KindSerialization, "truncated string field "+key, err)
			}
			r.set(key, fieldValue{typ: fieldString, s: s})
		case fieldInt64:
			var tmp [8]byte
			if _, err := buf.Read(tmp[:]); err != nil {
				return nil, apperrors.Wrap(apperrors.KindSerialization, "truncated int field "+key, err)
			}
			r.set(key, fieldValue{typ: fieldInt64, i: int64(binary.BigEndian.Uint64(tmp[:]))})
		case fieldBool:
			bb, err := buf.ReadByte()
			if err != nil {
				return nil, apperrors.Wrap(apperrors.KindSerialization, "truncated bool field "+key, err)
			}
			r.set(key, fieldValue{typ: fieldBool, b: bb != 0})
		case fieldBytes:
			n, err := readUint32(buf)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.KindSerialization, "truncated nested length "+key, err)
			}
			nested := make([]byte, n)
			if _, err := buf.Read(nested); err != nil {
				return nil, apperrors.Wrap(apperrors.KindSerialization, "truncated nested record "+key, err)
			}
			sub, err := decodeRecord(bytes.NewReader(nested))
			if err != nil {
				return nil, err
			}
			r.set(key, fieldValue{typ: fieldBytes, rec: sub})
		default:
			return nil, apperrors.New(apperrors.KindSerialization, fmt.Sprintf("unknown field type %d for key %s", typ, key))
		}
	}
	return r, nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func readUint16(buf *bytes.Reader) (uint16, error) {
	var tmp [2]byte
	if _, err := buf.Read(tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(tmp[:]), nil
}

func readUint32(buf *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := buf.Read(tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func writeLenString(buf *bytes.Buffer, s string) {
	writeUint16(buf, uint16(len(s)))
	buf.WriteString(s)
}

func readLenString(buf *bytes.Reader) (string, error) {
	n, err := readUint16(buf)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := buf.Read(b); err != nil {
			return "", err
		}
	}
	return string(b), nil
}
