// util/json.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// JSON

// DuplicateJSONKey is a key that appears more than once in the same
// object; encoding/json silently keeps the last one.
type DuplicateJSONKey struct {
	Path string // e.g. "pid" or "steps[2]"; empty at the top level
	Key  string
}

// FindDuplicateJSONKeys returns the duplicated keys in data, in the order
// they are found. Malformed JSON is scanned as far as it parses.
func FindDuplicateJSONKeys(data []byte) []DuplicateJSONKey {
	dec := json.NewDecoder(bytes.NewReader(data))
	var dups []DuplicateJSONKey

	var walk func(path []string) error
	walk = func(path []string) error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('{'):
			seen := make(map[string]bool)
			for dec.More() {
				tok, err := dec.Token()
				if err != nil {
					return err
				}
				key := tok.(string)
				if seen[key] {
					dups = append(dups, DuplicateJSONKey{Path: strings.Join(path, "."), Key: key})
				}
				seen[key] = true
				if err := walk(append(path, key)); err != nil {
					return err
				}
			}
			_, err = dec.Token()
			return err

		case json.Delim('['):
			for i := 0; dec.More(); i++ {
				elem := append([]string(nil), path...)
				if n := len(elem); n > 0 {
					elem[n-1] += "[" + strconv.Itoa(i) + "]"
				} else {
					elem = []string{"[" + strconv.Itoa(i) + "]"}
				}
				if err := walk(elem); err != nil {
					return err
				}
			}
			_, err = dec.Token()
			return err
		}
		return nil
	}
	_ = walk(nil)

	return dups
}

func UnmarshalJSON[T any](r io.Reader, out *T) error {
	// Read it all so that errors can be reported with line numbers.
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return UnmarshalJSONBytes(b, out)
}

// UnmarshalJSONBytes is json.Unmarshal with syntax and type errors
// reported by line and column.
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	where := func(offset int64) string {
		offset = min(offset, int64(len(b)))
		prefix := b[:offset]
		line := bytes.Count(prefix, []byte{'\n'}) + 1
		col := len(prefix) - bytes.LastIndexByte(prefix, '\n')
		return fmt.Sprintf("line %d, character %d", line, col)
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		return fmt.Errorf("%s: %w", where(jerr.Offset), jerr)
	case *json.UnmarshalTypeError:
		field := jerr.Field
		if jerr.Struct != "" {
			field = jerr.Struct + "." + field
		}
		return fmt.Errorf("%s: %s value for %s invalid for type %s", where(jerr.Offset),
			jerr.Value, field, jerr.Type)
	default:
		return err
	}
}
