// Package jsonio loads the raw game exports. Decoding always goes through
// json.Decoder.UseNumber so that 64-bit hash numerals survive intact.
package jsonio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads and decodes one JSON document. Some exports are written with a
// UTF-8 BOM, which encoding/json rejects, so it is stripped first.
func Load(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(raw, path)
}

// Decode parses raw bytes the same way Load does; name is used in errors only.
func Decode(raw []byte, name string) (any, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return doc, nil
}
