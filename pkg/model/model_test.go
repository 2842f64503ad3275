package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xena-tools/xenamanager-go/pkg/poll"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: "192.168.1.10/0/1", want: Location{Chassis: "192.168.1.10", Module: 0, Port: 1}},
		{in: "chassis-a/12/3", want: Location{Chassis: "chassis-a", Module: 12, Port: 3}},
		{in: "192.168.1.10/0", wantErr: true},
		{in: "/0/1", wantErr: true},
		{in: "192.168.1.10/a/1", wantErr: true},
		{in: "192.168.1.10/0/1/2", wantErr: true},
		{in: "192.168.1.10/-1/0", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseStates(t *testing.T) {
	assert.Equal(t, ReservationReservedByYou, ParseReservationState("RESERVED_BY_YOU"))
	assert.Equal(t, ReservationReservedByOther, ParseReservationState(" reserved_by_other "))
	assert.Equal(t, ReservationReleased, ParseReservationState("RELEASED"))
	assert.Equal(t, ReservationUnknown, ParseReservationState("BOGUS"))
	assert.Equal(t, "RESERVED_BY_YOU", ReservationReservedByYou.String())

	assert.Equal(t, TrafficOn, ParseTrafficState("ON"))
	assert.Equal(t, TrafficOff, ParseTrafficState("off"))
	assert.Equal(t, TrafficUnknown, ParseTrafficState(""))
	assert.Equal(t, "off", TrafficOff.String())
}

func TestErrorsUnwrap(t *testing.T) {
	resErr := &ReservationError{Port: "10.0.0.1/0/0", Holder: "bob"}
	assert.True(t, errors.Is(resErr, ErrReservationConflict))
	assert.Contains(t, resErr.Error(), "bob")

	protoErr := &ProtocolError{Command: "0/0 p_reset", Reply: "<FAILED>"}
	assert.True(t, errors.Is(protoErr, ErrProtocol))

	assert.Same(t, poll.ErrTimeout, ErrTimeout)
}
