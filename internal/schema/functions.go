package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Function is a zero-argument SQL function usable in DEFAULT clauses
// and value positions.
type Function uint8

const (
	// FunctionNow yields the current UTC timestamp.
	FunctionNow Function = iota
	// FunctionUlid yields a UUID derived from a freshly generated ULID,
	// so that successively generated ids sort by creation time.
	FunctionUlid
)

// ParseFunction recognizes a function name case-insensitively.
func ParseFunction(candidate string) (Function, error) {
	switch strings.ToLower(candidate) {
	case "now":
		return FunctionNow, nil
	case "ulid":
		return FunctionUlid, nil
	default:
		return 0, fmt.Errorf("`%s` does not refer to a supported function", candidate)
	}
}

func (f Function) String() string {
	switch f {
	case FunctionNow:
		return "NOW"
	case FunctionUlid:
		return "ULID"
	default:
		return fmt.Sprintf("Function(%d)", uint8(f))
	}
}

// Call evaluates the function.
func (f Function) Call() Value {
	switch f {
	case FunctionNow:
		return NewTimestamp(time.Now().UTC().Unix())
	case FunctionUlid:
		return NewUUID(uuid.UUID(ulid.Make()))
	default:
		panic(fmt.Sprintf("unknown function %d", uint8(f)))
	}
}

// ReturnType is the raw type of the function's result.
func (f Function) ReturnType() DataTypeRaw {
	switch f {
	case FunctionNow:
		return TypeTimestamp
	case FunctionUlid:
		return TypeUUID
	default:
		panic(fmt.Sprintf("unknown function %d", uint8(f)))
	}
}
