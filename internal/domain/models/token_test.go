package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenMetadata_IsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		meta TokenMetadata
		want bool
	}{
		{name: "future expiry", meta: TokenMetadata{ExpiresAt: now.Add(time.Hour)}, want: false},
		{name: "exactly at expiry", meta: TokenMetadata{ExpiresAt: now}, want: false},
		{name: "past expiry", meta: TokenMetadata{ExpiresAt: now.Add(-time.Second)}, want: true},
		{name: "no expiry", meta: TokenMetadata{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.meta.IsExpired(now))
		})
	}
}

func TestNewRevocationEvent(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	a := NewRevocationEvent("tok", "node-1", exp)
	b := NewRevocationEvent("tok", "node-1", exp)

	assert.Equal(t, "tok", a.Token)
	assert.Equal(t, "node-1", a.Source)
	assert.Equal(t, exp, a.ExpiresAt)
	assert.NotEmpty(t, a.EventID)
	assert.NotEqual(t, a.EventID, b.EventID)
}
