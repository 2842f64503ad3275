package wire

import "strings"

// Status represents a bracketed reply status token.
type Status uint8

const (
	// StatusOK acknowledges a set command.
	StatusOK Status = iota

	// StatusSync terminates a multi-line reply.
	StatusSync

	// StatusNotLoggedOn indicates the connection has not logged on.
	StatusNotLoggedOn

	// StatusNotReserved indicates the resource must be reserved first.
	StatusNotReserved

	// StatusNotReadable indicates the parameter cannot be queried.
	StatusNotReadable

	// StatusNotWritable indicates the parameter cannot be set.
	StatusNotWritable

	// StatusNotValid indicates the command is not valid in the current state.
	StatusNotValid

	// StatusBadPort indicates the port index does not exist.
	StatusBadPort

	// StatusBadModule indicates the module index does not exist.
	StatusBadModule

	// StatusBadIndex indicates a sub-index is out of range.
	StatusBadIndex

	// StatusBadSize indicates a value has the wrong size.
	StatusBadSize

	// StatusBadValue indicates a value is out of range.
	StatusBadValue

	// StatusFailed indicates the chassis failed to execute the command.
	StatusFailed

	// StatusSyntax indicates the line could not be parsed.
	StatusSyntax

	// StatusReservedByOther indicates another owner holds the resource.
	StatusReservedByOther

	// StatusUnknown is any bracketed token not listed above.
	StatusUnknown
)

var statusTokens = map[string]Status{
	"<OK>":              StatusOK,
	"<SYNC>":            StatusSync,
	"<NOTLOGGEDON>":     StatusNotLoggedOn,
	"<NOTRESERVED>":     StatusNotReserved,
	"<NOTREADABLE>":     StatusNotReadable,
	"<NOTWRITABLE>":     StatusNotWritable,
	"<NOTVALID>":        StatusNotValid,
	"<BADPORT>":         StatusBadPort,
	"<BADMODULE>":       StatusBadModule,
	"<BADINDEX>":        StatusBadIndex,
	"<BADSIZE>":         StatusBadSize,
	"<BADVALUE>":        StatusBadValue,
	"<FAILED>":          StatusFailed,
	"<SYNTAX>":          StatusSyntax,
	"<RESERVEDBYOTHER>": StatusReservedByOther,
}

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusSync:
		return "SYNC"
	case StatusNotLoggedOn:
		return "NOTLOGGEDON"
	case StatusNotReserved:
		return "NOTRESERVED"
	case StatusNotReadable:
		return "NOTREADABLE"
	case StatusNotWritable:
		return "NOTWRITABLE"
	case StatusNotValid:
		return "NOTVALID"
	case StatusBadPort:
		return "BADPORT"
	case StatusBadModule:
		return "BADMODULE"
	case StatusBadIndex:
		return "BADINDEX"
	case StatusBadSize:
		return "BADSIZE"
	case StatusBadValue:
		return "BADVALUE"
	case StatusFailed:
		return "FAILED"
	case StatusSyntax:
		return "SYNTAX"
	case StatusReservedByOther:
		return "RESERVEDBYOTHER"
	default:
		return "UNKNOWN"
	}
}

// Token returns the bracketed wire form of the status.
func (s Status) Token() string {
	return "<" + s.String() + ">"
}

// IsSuccess returns true for statuses that do not indicate a rejection.
func (s Status) IsSuccess() bool {
	return s == StatusOK || s == StatusSync
}

// ParseStatus reports whether the line is a status reply and decodes it.
// Bracketed tokens that are not known decode to StatusUnknown.
func ParseStatus(line string) (Status, bool) {
	token := strings.TrimSpace(line)
	if !strings.HasPrefix(token, "<") || !strings.HasSuffix(token, ">") {
		return 0, false
	}
	if s, ok := statusTokens[strings.ToUpper(token)]; ok {
		return s, true
	}
	return StatusUnknown, true
}
