package discovery

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTXTRecords(t *testing.T) {
	txt := TXTRecordMap{"osc_port": "9996", "osc_transport": "UDP"}
	strs := TXTRecordsToStrings(txt)
	assert.Equal(t, []string{"osc_port=9996", "osc_transport=UDP"}, strs)
	assert.Equal(t, txt, StringsToTXTRecords(strs))

	parsed := StringsToTXTRecords([]string{"flag", "", "k=a=b"})
	assert.Equal(t, TXTRecordMap{"flag": "", "k": "a=b"}, parsed)
}

func TestServiceValidate(t *testing.T) {
	tests := []struct {
		name string
		svc  Service
		err  error
	}{
		{"valid", Service{Instance: "synth", Type: ServiceTypeOSC, Port: 9996}, nil},
		{"no type", Service{Instance: "synth", Port: 9996}, ErrInvalidService},
		{"bad port", Service{Instance: "synth", Type: ServiceTypeOSC, Port: 70000}, ErrInvalidService},
		{"empty name", Service{Type: ServiceTypeOSC, Port: 1}, ErrInvalidService},
		{"long name", Service{Instance: strings.Repeat("x", 64), Type: ServiceTypeOSC, Port: 1}, ErrInstanceNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.svc.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestOSCQueryServices(t *testing.T) {
	svcs := OSCQueryServices(strings.Repeat("d", 70), 5678, 1234)
	require.Len(t, svcs, 2)

	assert.Equal(t, ServiceTypeOSCQuery, svcs[0].Type)
	assert.Equal(t, 5678, svcs[0].Port)
	assert.Equal(t, "1234", svcs[0].Text[TXTOSCPort])
	assert.Len(t, svcs[0].Instance, MaxInstanceNameLen)

	assert.Equal(t, ServiceTypeOSC, svcs[1].Type)
	assert.Equal(t, 1234, svcs[1].Port)
	for _, s := range svcs {
		assert.NoError(t, s.Validate())
	}
}

func TestAddresses(t *testing.T) {
	merged := mergeAddresses([]string{"10.0.0.1"}, []string{"10.0.0.1", "fe80::1"})
	assert.Equal(t, []string{"10.0.0.1", "fe80::1"}, merged)
	assert.Equal(t, []string{"fe80::1"}, removeAddresses(merged, []string{"10.0.0.1"}))
}

func TestMDNSAdvertiserStopUnknown(t *testing.T) {
	a := NewMDNSAdvertiser(DefaultAdvertiserConfig())
	assert.ErrorIs(t, a.Stop("nope", ServiceTypeOSC), ErrNotFound)
	assert.ErrorIs(t, a.Advertise(context.Background(), Service{}), ErrInvalidService)
	a.StopAll()
	assert.Zero(t, a.Active())
}
