package bgp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRIBAppendAndWithdraw(t *testing.T) {
	rib := NewRIB()
	rib.AppendUpdate("192.168.0.2", UpdateBody{Network: "10.0.0.0", Netmask: "255.0.0.0"})
	rib.AppendUpdate("192.168.0.2", UpdateBody{Network: "20.0.0.0", Netmask: "255.0.0.0"})

	require.Len(t, rib.Records(), 2)

	found := rib.Withdraw("192.168.0.2", "10.0.0.0", "255.0.0.0")
	assert.True(t, found)
	require.Len(t, rib.Records(), 1)
	assert.Equal(t, "20.0.0.0", rib.Records()[0].Update.Network)
}

func TestRIBWithdrawUnknownIsNoOp(t *testing.T) {
	rib := NewRIB()
	rib.AppendUpdate("192.168.0.2", UpdateBody{Network: "10.0.0.0", Netmask: "255.0.0.0"})

	found := rib.Withdraw("192.168.0.2", "99.0.0.0", "255.0.0.0")
	assert.False(t, found)
	assert.Len(t, rib.Records(), 1)
}

func TestRIBWithdrawRemovesFirstMatchOnly(t *testing.T) {
	rib := NewRIB()
	rib.AppendUpdate("192.168.0.2", UpdateBody{Network: "10.0.0.0", Netmask: "255.0.0.0", LocalPref: 1})
	rib.AppendUpdate("172.16.0.2", UpdateBody{Network: "10.0.0.0", Netmask: "255.0.0.0", LocalPref: 2})

	found := rib.Withdraw("192.168.0.2", "10.0.0.0", "255.0.0.0")
	assert.True(t, found)
	require.Len(t, rib.Records(), 1)
	assert.Equal(t, "172.16.0.2", rib.Records()[0].Source)
}

func TestRIBWithdrawOnlyMatchesSameSource(t *testing.T) {
	rib := NewRIB()
	rib.AppendUpdate("192.168.0.2", UpdateBody{Network: "10.0.0.0", Netmask: "255.0.0.0"})

	found := rib.Withdraw("172.16.0.2", "10.0.0.0", "255.0.0.0")
	assert.False(t, found)
	assert.Len(t, rib.Records(), 1)
}
