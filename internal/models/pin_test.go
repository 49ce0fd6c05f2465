package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPin_Validate(t *testing.T) {
	pos := &LatLng{Lat: -34.928, Lng: 138.598}

	tests := []struct {
		name    string
		pin     *Pin
		wantErr bool
	}{
		{name: "ok", pin: &Pin{ID: "a", Owner: "o", Position: pos}},
		{name: "nil pin", pin: nil, wantErr: true},
		{name: "missing id", pin: &Pin{Owner: "o", Position: pos}, wantErr: true},
		{name: "missing owner", pin: &Pin{ID: "a", Position: pos}, wantErr: true},
		{name: "missing position", pin: &Pin{ID: "a", Owner: "o"}, wantErr: true},
		{name: "zero position is still a position", pin: &Pin{ID: "a", Owner: "o", Position: &LatLng{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pin.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidPin)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPin_JSONNeverCarriesPendingSync(t *testing.T) {
	p := Pin{ID: "a", Owner: "o", Position: &LatLng{Lat: 1, Lng: 2}, Updated: 100, Visible: true, PendingSync: true}

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","owner":"o","position":{"lat":1,"lng":2},"updated":100,"visible":true}`, string(b))

	var back Pin
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","owner":"o","position":null,"updated":1,"visible":true}`), &back))
	assert.Nil(t, back.Position)
	assert.False(t, back.PendingSync)
}

func TestPin_CloneIsDeep(t *testing.T) {
	p := Pin{ID: "a", Position: &LatLng{Lat: 1}}
	c := p.Clone()
	c.Position.Lat = 5
	assert.Equal(t, 1.0, p.Position.Lat)
}

func TestNextStamp_Monotonic(t *testing.T) {
	now := time.UnixMilli(1000)

	assert.Equal(t, int64(1000), NextStamp(now, 999))
	assert.Equal(t, int64(1001), NextStamp(now, 1000))
	assert.Equal(t, int64(5001), NextStamp(now, 5000), "clock regression must not decrease the stamp")
}
