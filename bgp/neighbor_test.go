package bgp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConn(t *testing.T) {
	n, err := ParseConn("7000-192.168.0.2-cust")
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.2", n.Addr)
	assert.Equal(t, 7000, n.Port)
	assert.Equal(t, Customer, n.Relationship)
}

func TestParseConnMalformed(t *testing.T) {
	for _, c := range []string{"7000-192.168.0.2", "notaport-192.168.0.2-cust", "7000-192.168.0.2-bogus"} {
		_, err := ParseConn(c)
		assert.Error(t, err, c)
	}
}

func TestOurAddr(t *testing.T) {
	addr, err := OurAddr("192.168.0.2")
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.1", addr)
}

func TestNeighborTableAddAndLookup(t *testing.T) {
	tbl := NewNeighborTable()
	ep := &fakeEndpoint{}
	n := Neighbor{Addr: "192.168.0.2", Port: 7000, Relationship: Customer}

	tbl.Add(n, ep)

	got, ok := tbl.Lookup("192.168.0.2")
	require.True(t, ok)
	assert.Equal(t, n, got)

	gotEp, ok := tbl.Endpoint("192.168.0.2")
	require.True(t, ok)
	assert.Same(t, ep, gotEp)

	assert.Equal(t, 1, tbl.Len())
}
