package bgp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPToU32RoundTrip(t *testing.T) {
	cases := []string{"0.0.0.0", "255.255.255.255", "192.168.0.1", "10.0.5.5"}

	for _, c := range cases {
		v, err := ipToU32(c)
		require.NoError(t, err)
		assert.Equal(t, c, u32ToIP(v))
	}
}

func TestIPToU32Malformed(t *testing.T) {
	for _, c := range []string{"1.2.3", "1.2.3.4.5", "1.2.3.256", "not.an.ip.addr"} {
		_, err := ipToU32(c)
		assert.Error(t, err, c)
	}
}

func TestMaskCIDRRoundTrip(t *testing.T) {
	for cidr := 0; cidr <= 32; cidr++ {
		mask := cidrToMask(cidr)
		assert.Equal(t, cidr, maskToCIDR(mask))
	}
}

func TestAddrRange(t *testing.T) {
	network, _ := ipToU32("192.168.0.0")
	mask := cidrToMask(24)

	low, high := addrRange(network, mask)

	assert.Equal(t, network, low)
	assert.Equal(t, "192.168.0.255", u32ToIP(high))
}

func TestLPMLength(t *testing.T) {
	dst, _ := ipToU32("10.1.2.3")

	net8, _ := ipToU32("10.0.0.0")
	net16, _ := ipToU32("10.1.0.0")
	net32, _ := ipToU32("10.1.2.3")

	l8 := lpmLength(dst, net8)
	l16 := lpmLength(dst, net16)
	l32 := lpmLength(dst, net32)

	assert.Less(t, l8, l16)
	assert.Less(t, l16, l32)
	assert.Equal(t, 32, l32)
}

func TestCovers(t *testing.T) {
	network, _ := ipToU32("192.168.1.0")
	mask := cidrToMask(24)

	inside, _ := ipToU32("192.168.1.200")
	outside, _ := ipToU32("192.168.2.1")

	assert.True(t, covers(inside, network, mask))
	assert.False(t, covers(outside, network, mask))
}

func TestWellFormed(t *testing.T) {
	network, _ := ipToU32("192.168.0.0")
	mask := cidrToMask(23)
	assert.True(t, wellFormed(network, mask))

	badNetwork, _ := ipToU32("192.168.1.0")
	assert.False(t, wellFormed(badNetwork, mask))
}
