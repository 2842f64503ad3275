package wire

import (
	"errors"
	"strconv"
	"strings"
)

// QueryToken is the trailing argument that turns a command into a query.
const QueryToken = "?"

// SyncCommand is the no-op command used to delimit multi-line replies and
// to keep an idle connection alive.
const SyncCommand = "sync"

// ErrEmptyCommand indicates a command without a mnemonic.
var ErrEmptyCommand = errors.New("empty command")

// Command is a single protocol line addressed to a chassis resource.
type Command struct {
	// Address is the resource address relative to the chassis
	// ("" for the chassis, "<m>" for a module, "<m>/<p>" for a port).
	Address string

	// Mnemonic is the parameter name, e.g. "p_reservation".
	Mnemonic string

	// Args are the already formatted argument tokens.
	Args []string
}

// NewCommand builds a command for the given address.
func NewCommand(address, mnemonic string, args ...string) Command {
	return Command{Address: address, Mnemonic: mnemonic, Args: args}
}

// NewQuery builds a query ("<mnemonic> ?") for the given address.
func NewQuery(address, mnemonic string) Command {
	return Command{Address: address, Mnemonic: mnemonic, Args: []string{QueryToken}}
}

// IsQuery returns true if the command ends with the query token.
func (c Command) IsQuery() bool {
	return len(c.Args) > 0 && c.Args[len(c.Args)-1] == QueryToken
}

// String formats the command as a protocol line without line terminator.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+2)
	if c.Address != "" {
		parts = append(parts, c.Address)
	}
	parts = append(parts, c.Mnemonic)
	for _, a := range c.Args {
		if a != "" {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}

// ParseCommand splits a protocol line into its address, mnemonic and args.
// Quoted arguments are kept as a single token including their quotes.
func ParseCommand(line string) (Command, error) {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return Command{}, ErrEmptyCommand
	}

	var cmd Command
	if IsAddress(tokens[0]) {
		cmd.Address = tokens[0]
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return Command{}, ErrEmptyCommand
	}
	cmd.Mnemonic = strings.ToLower(tokens[0])
	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd, nil
}

// Quote encloses a string argument in double quotes.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `'`) + `"`
}

// Unquote strips one pair of enclosing double quotes, if present.
func Unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// IsAddress reports whether the token is a resource address: one or more
// decimal indices separated by slashes.
func IsAddress(token string) bool {
	if token == "" {
		return false
	}
	for _, part := range strings.Split(token, "/") {
		if _, err := strconv.ParseUint(part, 10, 16); err != nil {
			return false
		}
	}
	return true
}

// PortList formats port addresses for multi-port chassis commands by
// replacing the slash with a space: ["0/1", "1/0"] → "0 1 1 0".
func PortList(addresses []string) string {
	parts := make([]string, 0, len(addresses))
	for _, a := range addresses {
		parts = append(parts, strings.ReplaceAll(a, "/", " "))
	}
	return strings.Join(parts, " ")
}

// Tokenize splits a line on whitespace, keeping double-quoted strings
// together.
func Tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t' || r == '\r' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
