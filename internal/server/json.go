package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/emdrive/emdrive/internal/schema"
)

// NamedRow pairs a row with its column names so it can marshal as a
// JSON object whose keys appear in selection order.
type NamedRow struct {
	Columns []string
	Row     schema.Row
}

// MarshalJSON writes the object by hand - encoding/json maps would
// lose the column order.
func (r NamedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := instanceJSON(r.Row[i])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// instanceJSON renders one cell: integers as numbers (UINT128 as a
// decimal number via its string form), bools as booleans, strings as
// strings, timestamps as RFC 3339 UTC, UUIDs as canonical hyphenated
// strings, NULL as null.
func instanceJSON(instance schema.Instance) ([]byte, error) {
	if instance.Null {
		return []byte("null"), nil
	}
	value := instance.Value
	switch value.Kind {
	case schema.TypeUInt8, schema.TypeUInt16, schema.TypeUInt32, schema.TypeUInt64:
		return []byte(strconv.FormatUint(value.U64, 10)), nil
	case schema.TypeUInt128:
		return []byte(value.U128.String()), nil
	case schema.TypeBool:
		return []byte(strconv.FormatBool(value.B)), nil
	case schema.TypeTimestamp:
		return json.Marshal(time.Unix(value.TS, 0).UTC().Format(time.RFC3339))
	case schema.TypeUUID:
		return json.Marshal(value.UUID.String())
	case schema.TypeString:
		return json.Marshal(value.S)
	default:
		return nil, fmt.Errorf("unknown value kind %d", uint8(value.Kind))
	}
}
