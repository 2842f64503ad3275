package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Reply errors.
var (
	// ErrMalformedReply indicates a reply line that cannot be parsed.
	ErrMalformedReply = errors.New("malformed reply")

	// ErrEmptyReply indicates a query that produced no value lines.
	ErrEmptyReply = errors.New("empty reply")
)

// StatusError is returned when the chassis rejects a command.
type StatusError struct {
	Status Status
	Token  string
}

func (e *StatusError) Error() string {
	if e.Status == StatusUnknown {
		return "chassis returned " + e.Token
	}
	return "chassis returned " + e.Status.Token()
}

// CheckStatus returns a *StatusError if the line is a rejection status.
// Value lines and success statuses return nil.
func CheckStatus(line string) error {
	s, ok := ParseStatus(line)
	if !ok || s.IsSuccess() {
		return nil
	}
	return &StatusError{Status: s, Token: strings.TrimSpace(line)}
}

// Value is one parsed value line.
type Value struct {
	// Address is the resource address echoed by the chassis ("" for chassis).
	Address string

	// Param is the lower-cased parameter name.
	Param string

	// Value is the remaining text, tokens separated by single spaces.
	Value string
}

// ParseValue parses a value line in either the native form
// "[<address>] <PARAM> <value...>" or the keyed form "<param>: <value>".
func ParseValue(line string) (Value, error) {
	if err := CheckStatus(line); err != nil {
		return Value{}, err
	}
	if _, isStatus := ParseStatus(line); isStatus {
		return Value{}, fmt.Errorf("%w: status %q where value expected", ErrMalformedReply, strings.TrimSpace(line))
	}

	trimmed := strings.TrimSpace(line)
	if key, val, ok := strings.Cut(trimmed, ": "); ok && !strings.ContainsAny(key, " \t") {
		return Value{Param: strings.ToLower(key), Value: strings.TrimSpace(val)}, nil
	}

	tokens := Tokenize(trimmed)
	var v Value
	if len(tokens) > 0 && IsAddress(tokens[0]) {
		v.Address = tokens[0]
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return Value{}, fmt.Errorf("%w: %q", ErrMalformedReply, line)
	}
	v.Param = strings.ToLower(tokens[0])
	v.Value = strings.Join(tokens[1:], " ")
	return v, nil
}

// ParseScalar parses a single-parameter reply and returns its value.
// The echoed parameter must match param (case-insensitive).
func ParseScalar(line, param string) (string, error) {
	v, err := ParseValue(line)
	if err != nil {
		return "", err
	}
	if v.Param != strings.ToLower(param) {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrMalformedReply, strings.ToLower(param), v.Param)
	}
	return v.Value, nil
}

// FamilyPrefix returns the parameter family of a mnemonic including the
// underscore: "c_info" → "c_", "pr_total" → "pr_".
func FamilyPrefix(mnemonic string) string {
	if i := strings.Index(mnemonic, "_"); i >= 0 {
		return strings.ToLower(mnemonic[:i+1])
	}
	return ""
}

// ParseAttributes parses the value lines of a multi-parameter query into a
// map keyed by the parameter name with the query's family prefix removed.
// Lines of "c_info" such as "C_PORTCOUNTS 4 0 2" yield {"portcounts": "4 0 2"}.
func ParseAttributes(lines []string, query string) (map[string]string, error) {
	prefix := FamilyPrefix(query)
	attrs := make(map[string]string, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if s, ok := ParseStatus(line); ok {
			if s.IsSuccess() {
				continue
			}
			return nil, &StatusError{Status: s, Token: strings.TrimSpace(line)}
		}
		v, err := ParseValue(line)
		if err != nil {
			return nil, err
		}
		attrs[strings.TrimPrefix(v.Param, prefix)] = v.Value
	}
	if len(attrs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyReply, query)
	}
	return attrs, nil
}
