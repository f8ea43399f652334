package fetcher

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// DecodeJSONValue decodes a single JSON document into generic values.
// Numbers are kept as json.Number so large seller IDs survive intact.
// Trailing data after the document is an error.
func DecodeJSONValue(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, eris.Wrap(err, "json: decode value")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, eris.New("json: unexpected data after document")
	}
	return v, nil
}
