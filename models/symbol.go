package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Symbol identifies a fungible asset: an uppercase code of at most seven
// letters plus a fixed decimal precision. Two amounts are only comparable
// under the same symbol.
type Symbol struct {
	Code      string `json:"code"`
	Precision uint8  `json:"precision"`
}

const maxSymbolLen = 7

// Valid reports whether the code is 1-7 uppercase ASCII letters.
func (s Symbol) Valid() bool {
	if len(s.Code) == 0 || len(s.Code) > maxSymbolLen {
		return false
	}
	for _, c := range s.Code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// Equal requires both code and precision to match.
func (s Symbol) Equal(other Symbol) bool {
	return s.Code == other.Code && s.Precision == other.Precision
}

// String renders the symbol as "precision,CODE", e.g. "4,PROTO".
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// ParseSymbol parses the "precision,CODE" form produced by String.
func ParseSymbol(raw string) (Symbol, error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return Symbol{}, errors.Wrapf(ErrInvalidAsset, "malformed symbol %q", raw)
	}
	prec, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Symbol{}, errors.Wrapf(ErrInvalidAsset, "malformed precision in %q", raw)
	}
	sym := Symbol{Code: parts[1], Precision: uint8(prec)}
	if !sym.Valid() {
		return Symbol{}, errors.Wrapf(ErrInvalidAsset, "invalid symbol code %q", parts[1])
	}
	return sym, nil
}
