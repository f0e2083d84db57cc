package pow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxLoggedValueLen is the longest payload value written to the logs
// verbatim. Longer values are replaced by a type and length placeholder.
const maxLoggedValueLen = 100

type member struct {
	key   string
	value json.RawMessage
}

// payload holds the top-level members of a token that is itself a JSON
// object, in document order.
type payload []member

var errNotObject = errors.New("token is not a JSON object")

func parsePayload(token string) (payload, error) {
	dec := json.NewDecoder(strings.NewReader(token))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	p := payload{}
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := t.(string)
		if !ok {
			return nil, errNotObject
		}

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		p = append(p, member{key: key, value: v})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after token object")
	}

	return p, nil
}

func (p payload) keys() []string {
	keys := make([]string, 0, len(p))
	for _, m := range p {
		keys = append(keys, m.key)
	}
	return keys
}

// id returns the "id" member as a string. Strings are returned as is and
// numbers as their literal text. Anything else counts as absent.
func (p payload) id() string {
	for _, m := range p {
		if m.key != "id" {
			continue
		}

		var s string
		if err := json.Unmarshal(m.value, &s); err == nil {
			return s
		}

		var n json.Number
		if err := json.Unmarshal(m.value, &n); err == nil {
			return n.String()
		}

		return ""
	}

	return ""
}

// render returns the loggable form of a member value.
func render(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if n := utf8.RuneCountInString(s); n > maxLoggedValueLen {
			return fmt.Sprintf("<string, length=%d>", n)
		}
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		buf.Reset()
		buf.Write(v)
	}

	if buf.Len() > maxLoggedValueLen {
		return fmt.Sprintf("<%s, length=%d>", jsonType(v), buf.Len())
	}

	return buf.String()
}

func jsonType(v json.RawMessage) string {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 {
		return "unknown"
	}

	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
