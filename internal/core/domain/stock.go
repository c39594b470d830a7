package domain

import "fmt"

// StockState tracks a size's availability as reported by a shop. Unknown is
// kept distinct from sold out so that the first sighting of an in-stock size
// counts as a restock.
type StockState int

const (
	StockUnknown StockState = iota
	StockIn
	StockOut
)

func StockStateOf(inStock bool) StockState {
	if inStock {
		return StockIn
	}
	return StockOut
}

func (s StockState) InStock() bool {
	return s == StockIn
}

func (s StockState) String() string {
	switch s {
	case StockIn:
		return "In stock"
	case StockOut:
		return "Out of stock"
	default:
		return "Unknown"
	}
}

// MarshalJSON keeps the document format of the stock flag: true, false, or
// null while unknown.
func (s StockState) MarshalJSON() ([]byte, error) {
	switch s {
	case StockIn:
		return []byte("true"), nil
	case StockOut:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (s *StockState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*s = StockIn
	case "false":
		*s = StockOut
	case "null":
		*s = StockUnknown
	default:
		return fmt.Errorf("invalid stock flag: %s", string(data))
	}
	return nil
}
