package log

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects protocol events. Zero fields match every event.
type Filter struct {
	ConnectionID string
	Chassis      string
	Direction    *Direction
	Layer        *Layer
	Category     *Category

	// TimeStart and TimeEnd bound the timestamp to [TimeStart, TimeEnd).
	TimeStart *time.Time
	TimeEnd   *time.Time

	// Mnemonic matches command events by parameter name, ignoring case.
	Mnemonic string

	// Port is a "<module>/<port>" address. It matches commands sent to
	// that port and state changes of the port.
	Port string

	// Failed keeps error events and commands answered with a status other
	// than "<OK>" or "<SYNC>".
	Failed bool
}

func (f *Filter) matches(event Event) bool {
	if f.ConnectionID != "" && event.ConnectionID != f.ConnectionID {
		return false
	}
	if f.Chassis != "" && event.Chassis != f.Chassis {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Layer != nil && event.Layer != *f.Layer {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	if f.Mnemonic != "" && (event.Command == nil || !strings.EqualFold(event.Command.Mnemonic, f.Mnemonic)) {
		return false
	}
	if f.Port != "" && !refersToPort(event, f.Port) {
		return false
	}
	if f.Failed && !failed(event) {
		return false
	}
	return true
}

func refersToPort(event Event, port string) bool {
	switch {
	case event.Command != nil:
		return event.Command.Address == port
	case event.StateChange != nil:
		obj := event.StateChange.Object
		return obj == port || strings.HasSuffix(obj, "/"+port)
	}
	return false
}

func failed(event Event) bool {
	if event.Error != nil {
		return true
	}
	if event.Command == nil {
		return false
	}
	switch event.Command.Status {
	case "", "<OK>", "<SYNC>":
		return false
	}
	return true
}

// Reader streams events from one protocol log, or from a rotated log
// followed by its current file.
type Reader struct {
	files   []*os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader reads every event of the log at path.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader reads the events of the log at path that match filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return newReader(filter, f), nil
}

// NewRotatedReader reads path+RotatedSuffix, when it exists, and then path,
// so events come out in the order they were logged.
func NewRotatedReader(path string, filter Filter) (*Reader, error) {
	var files []*os.File
	if f, err := os.Open(path + RotatedSuffix); err == nil {
		files = append(files, f)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		for _, f := range files {
			f.Close()
		}
		return nil, err
	}
	return newReader(filter, append(files, f)...), nil
}

func newReader(filter Filter, files ...*os.File) *Reader {
	readers := make([]io.Reader, len(files))
	for i, f := range files {
		readers[i] = f
	}
	return &Reader{
		files:   files,
		decoder: NewDecoder(io.MultiReader(readers...)),
		filter:  filter,
	}
}

// Next returns the next matching event, or io.EOF after the last one.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying files.
func (r *Reader) Close() error {
	var errs []error
	for _, f := range r.files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}
