package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relix-db/relix/internal/alias/bx"
)

// WriteField is a field value that knows its own on-disk length and how to
// write itself — the counterpart to ReadField, which knows how to parse
// one back out of bytes or a literal token.
type WriteField interface {
	Length() int
	Write(buf []byte, offset int)
	Constant() Constant
}

// ReadField knows how to decode a field of one particular column from a
// tuple's byte buffer, or from a literal SQL token, into a WriteField.
type ReadField interface {
	Clone() ReadField
	FromBytes(buf []byte, offset int) (WriteField, int, error)
	FromLiteral(tok string) (WriteField, error)
}

// --- Int: 4-byte little-endian signed integer ---

type IntWriteField struct{ Value int32 }

func (f IntWriteField) Length() int { return 4 }
func (f IntWriteField) Write(buf []byte, offset int) {
	bx.PutU32At(buf, offset, uint32(f.Value))
}
func (f IntWriteField) Constant() Constant { return NumberConstant(int64(f.Value)) }

type IntReadField struct{}

func (IntReadField) Clone() ReadField { return IntReadField{} }
func (IntReadField) FromBytes(buf []byte, offset int) (WriteField, int, error) {
	if offset+4 > len(buf) {
		return nil, 0, fmt.Errorf("record: int field: short buffer")
	}
	return IntWriteField{Value: int32(bx.U32At(buf, offset))}, 4, nil
}
func (IntReadField) FromLiteral(tok string) (WriteField, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("record: int literal %q: %w", tok, err)
	}
	return IntWriteField{Value: int32(n)}, nil
}

// --- FixedChar(N): N bytes, space-padded, unterminated ---

type FixedCharWriteField struct {
	Value string
	Size  int
}

func (f FixedCharWriteField) Length() int { return f.Size }
func (f FixedCharWriteField) Write(buf []byte, offset int) {
	b := buf[offset : offset+f.Size]
	for i := range b {
		b[i] = ' '
	}
	copy(b, f.Value)
}
func (f FixedCharWriteField) Constant() Constant { return StringConstant(f.Value) }

type FixedCharReadField struct{ Size int }

func (r FixedCharReadField) Clone() ReadField { return FixedCharReadField{Size: r.Size} }
func (r FixedCharReadField) FromBytes(buf []byte, offset int) (WriteField, int, error) {
	if offset+r.Size > len(buf) {
		return nil, 0, fmt.Errorf("record: fixedchar field: short buffer")
	}
	v := strings.TrimRight(string(buf[offset:offset+r.Size]), " ")
	return FixedCharWriteField{Value: v, Size: r.Size}, r.Size, nil
}
func (r FixedCharReadField) FromLiteral(tok string) (WriteField, error) {
	v := strings.Trim(strings.TrimSpace(tok), "'\"")
	if len(v) > r.Size {
		return nil, fmt.Errorf("record: fixedchar(%d) literal %q too long", r.Size, v)
	}
	return FixedCharWriteField{Value: v, Size: r.Size}, nil
}

// --- VarChar: 2-byte logical length + 2-byte physical (reserved) size + bytes ---

type VarCharWriteField struct {
	Value   string
	MaxSize int
}

func (f VarCharWriteField) Length() int { return 4 + f.MaxSize }
func (f VarCharWriteField) Write(buf []byte, offset int) {
	bx.PutU16At(buf, offset, uint16(len(f.Value)))
	bx.PutU16At(buf, offset+2, uint16(f.MaxSize))
	body := buf[offset+4 : offset+4+f.MaxSize]
	clear(body)
	copy(body, f.Value)
}
func (f VarCharWriteField) Constant() Constant { return StringConstant(f.Value) }

type VarCharReadField struct{ MaxSize int }

func (r VarCharReadField) Clone() ReadField { return VarCharReadField{MaxSize: r.MaxSize} }
func (r VarCharReadField) FromBytes(buf []byte, offset int) (WriteField, int, error) {
	if offset+4 > len(buf) {
		return nil, 0, fmt.Errorf("record: varchar field: short buffer")
	}
	logical := int(bx.U16At(buf, offset))
	physical := int(bx.U16At(buf, offset+2))
	if offset+4+physical > len(buf) || logical > physical {
		return nil, 0, fmt.Errorf("record: varchar field: corrupt length prefix")
	}
	v := string(buf[offset+4 : offset+4+logical])
	return VarCharWriteField{Value: v, MaxSize: physical}, 4 + physical, nil
}
func (r VarCharReadField) FromLiteral(tok string) (WriteField, error) {
	v := strings.Trim(strings.TrimSpace(tok), "'\"")
	if len(v) > r.MaxSize {
		return nil, fmt.Errorf("record: varchar(%d) literal %q too long", r.MaxSize, v)
	}
	return VarCharWriteField{Value: v, MaxSize: r.MaxSize}, nil
}
