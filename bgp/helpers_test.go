package bgp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEndpoint records every datagram sent to it, standing in for a
// transport.Endpoint in router-level tests.
type fakeEndpoint struct {
	sent []Envelope
}

func (f *fakeEndpoint) Send(data []byte) error {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	f.sent = append(f.sent, e)
	return nil
}

func addNeighbor(t *testing.T, r *Router, addr string, rel Relationship, port int) *fakeEndpoint {
	t.Helper()
	ep := &fakeEndpoint{}
	r.neighbors.Add(Neighbor{Addr: addr, Port: port, Relationship: rel}, ep)
	return ep
}

func deliverUpdate(t *testing.T, r *Router, from string, body UpdateBody) {
	t.Helper()
	msg, err := json.Marshal(body)
	require.NoError(t, err)
	data, err := json.Marshal(Envelope{Src: from, Dst: "0.0.0.0", Type: KindUpdate, Msg: msg})
	require.NoError(t, err)
	r.HandleDatagram(from, data)
}

func deliverWithdraw(t *testing.T, r *Router, from string, entries ...WithdrawEntry) {
	t.Helper()
	msg, err := json.Marshal(entries)
	require.NoError(t, err)
	data, err := json.Marshal(Envelope{Src: from, Dst: "0.0.0.0", Type: KindWithdraw, Msg: msg})
	require.NoError(t, err)
	r.HandleDatagram(from, data)
}

func unmarshalMsg(env Envelope, v any) error {
	return json.Unmarshal(env.Msg, v)
}

func deliverData(t *testing.T, r *Router, from, dst string, payload string) {
	t.Helper()
	msg, _ := json.Marshal(payload)
	data, err := json.Marshal(Envelope{Src: from, Dst: dst, Type: KindData, Msg: msg})
	require.NoError(t, err)
	r.HandleDatagram(from, data)
}
