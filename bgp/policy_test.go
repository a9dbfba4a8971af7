package bgp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportAllowed(t *testing.T) {
	cases := []struct {
		learnedFrom Relationship
		towards     Relationship
		want        bool
	}{
		{Customer, Peer, true},
		{Customer, Provider, true},
		{Peer, Customer, true},
		{Provider, Customer, true},
		{Peer, Peer, false},
		{Peer, Provider, false},
		{Provider, Peer, false},
		{Provider, Provider, false},
	}

	for _, c := range cases {
		got := ExportAllowed(c.learnedFrom, c.towards)
		assert.Equal(t, c.want, got, "learnedFrom=%v towards=%v", c.learnedFrom, c.towards)
	}
}

func TestAllowForward(t *testing.T) {
	assert.True(t, AllowForward(Customer, Peer, true))
	assert.True(t, AllowForward(Peer, Customer, true))
	assert.False(t, AllowForward(Peer, Peer, true))
	assert.False(t, AllowForward(Peer, Customer, false)) // unknown never satisfies customer side
}
