package fetcher

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// maxJSONBody bounds decoded API responses.
const maxJSONBody = 32 << 20

// DecodeJSON decodes a single JSON document from r.
func DecodeJSON[T any](r io.Reader) (*T, error) {
	var obj T
	if err := json.NewDecoder(io.LimitReader(r, maxJSONBody)).Decode(&obj); err != nil {
		return nil, eris.Wrap(err, "json: decode object")
	}
	return &obj, nil
}
