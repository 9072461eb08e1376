package server

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emdrive/emdrive/internal/schema"
)

func TestNamedRowJSON(t *testing.T) {
	row := NamedRow{
		Columns: []string{"id", "hash", "count", "ok", "seen_at", "note"},
		Row: schema.Row{
			schema.Direct(schema.NewUUID(uuid.MustParse("f81d4fae-7dec-11d0-a765-00a0c91e6bf6"))),
			schema.Direct(schema.NewUInt128(schema.Uint128{Hi: 1})),
			schema.Direct(schema.NewUInt64(42)),
			schema.Direct(schema.NewBool(true)),
			schema.Direct(schema.NewTimestamp(1546300800)),
			schema.Null(),
		},
	}
	body, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":"f81d4fae-7dec-11d0-a765-00a0c91e6bf6",`+
			`"hash":18446744073709551616,`+
			`"count":42,`+
			`"ok":true,`+
			`"seen_at":"2019-01-01T00:00:00Z",`+
			`"note":null}`,
		string(body))
}

func TestNamedRowPreservesColumnOrder(t *testing.T) {
	row := NamedRow{
		Columns: []string{"z", "a", "m"},
		Row: schema.Row{
			schema.Direct(schema.NewUInt8(1)),
			schema.Direct(schema.NewUInt8(2)),
			schema.Direct(schema.NewUInt8(3)),
		},
	}
	body, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2,"m":3}`, string(body))
}

func TestNamedRowEscapesStrings(t *testing.T) {
	row := NamedRow{
		Columns: []string{"text"},
		Row:     schema.Row{schema.Direct(schema.NewString("a \"quoted\" value"))},
	}
	body, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"text":"a \"quoted\" value"}`, string(body))
}
