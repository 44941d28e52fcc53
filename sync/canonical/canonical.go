package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// dynamicKeys are the top-level fields that change between
// otherwise-identical exports: the CMS regenerates them on
// every import round-trip.
var dynamicKeys = []string{
	"id",
	"date",
	"modified",
	"guid",
	"link",
}

// DigestBytes returns the SHA-256 hex digest of raw bytes.
func DigestBytes(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// DigestText returns the SHA-256 hex digest of the UTF-8
// encoding of text.
func DigestText(text string) string {
	return DigestBytes([]byte(text))
}

// DigestValue canonicalizes a JSON-like value and returns the
// SHA-256 hex digest of its canonical form. The always-excluded
// dynamic keys plus any extra exclude keys are removed from the
// top level only; nested mappings are not filtered. Mapping keys
// are serialized in ascending lexicographic order, sequence
// order is preserved.
func DigestValue(
	value interface{},
	exclude ...string,
) (string, error) {
	const errCtx = "digesting structured value"

	canon, err := Serialize(prune(value, exclude))
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return DigestText(canon), nil
}

// DecodeDocument parses a structured document into the generic
// JSON tree. Numbers are kept as json.Number so numeric
// literals survive canonicalization byte-for-byte.
func DecodeDocument(raw []byte) (interface{}, error) {
	const errCtx = "decoding document"

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value interface{}

	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return value, nil
}

// Serialize renders a JSON-like value in the canonical form:
// compact, with every mapping's keys in ascending lexicographic
// order. This is the string that DigestValue hashes.
func Serialize(value interface{}) (string, error) {
	const errCtx = "serializing canonical form"

	var sb strings.Builder

	if err := writeCanonical(&sb, value); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return sb.String(), nil
}

// prune returns a copy of value with the excluded top-level
// keys removed. Non-mapping values pass through unchanged.
func prune(
	value interface{},
	exclude []string,
) interface{} {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return value
	}

	drop := make(
		map[string]struct{},
		len(dynamicKeys)+len(exclude),
	)

	for _, key := range dynamicKeys {
		drop[key] = struct{}{}
	}

	for _, key := range exclude {
		drop[key] = struct{}{}
	}

	kept := make(map[string]interface{}, len(obj))

	for key, val := range obj {
		if _, skip := drop[key]; skip {
			continue
		}

		kept[key] = val
	}

	return kept
}

func writeCanonical(
	sb *strings.Builder,
	value interface{},
) error {
	switch typedVal := value.(type) {
	case map[string]interface{}:
		return writeMapping(sb, typedVal)
	case []interface{}:
		return writeSequence(sb, typedVal)
	case json.Number:
		sb.WriteString(typedVal.String())

		return nil
	case nil:
		sb.WriteString("null")

		return nil
	default:
		// Scalars: strings, bools, and any numeric type a
		// caller constructed in memory. json.Marshal gives
		// the exact JSON escaping rules.
		buf, err := json.Marshal(typedVal)
		if err != nil {
			return fmt.Errorf(
				"marshaling scalar %v: %w",
				typedVal, err,
			)
		}

		sb.Write(buf)

		return nil
	}
}

func writeMapping(
	sb *strings.Builder,
	obj map[string]interface{},
) error {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	sb.WriteByte('{')

	for idx, key := range keys {
		if idx > 0 {
			sb.WriteByte(',')
		}

		encKey, err := json.Marshal(key)
		if err != nil {
			return fmt.Errorf(
				"marshaling key %q: %w", key, err,
			)
		}

		sb.Write(encKey)
		sb.WriteByte(':')

		if err := writeCanonical(
			sb, obj[key],
		); err != nil {
			return err
		}
	}

	sb.WriteByte('}')

	return nil
}

func writeSequence(
	sb *strings.Builder,
	seq []interface{},
) error {
	sb.WriteByte('[')

	for idx, item := range seq {
		if idx > 0 {
			sb.WriteByte(',')
		}

		if err := writeCanonical(sb, item); err != nil {
			return err
		}
	}

	sb.WriteByte(']')

	return nil
}
