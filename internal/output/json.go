package output

import (
	"encoding/json"

	"github.com/chatlens/chatlens/internal/core"
)

// JSONFormatter renders exchange history as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatHistory renders exchanges as a JSON array.
func (f *JSONFormatter) FormatHistory(exchanges []core.Exchange) (string, error) {
	if exchanges == nil {
		exchanges = []core.Exchange{}
	}

	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(exchanges, "", "  ")
	} else {
		data, err = json.Marshal(exchanges)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
