package replay

import (
	"errors"
	"time"

	rng "github.com/leesper/go_rng"
)

// Envelope is the identity-addressed frame [identity][""][payload].
// Only the framing and its (de)serialization live here; no socket is
// opened.
type Envelope struct {
	Identity []byte
	Payload  []byte
}

// EncodeEnvelope renders e as the three-part frame a ZMQ ROUTER/DEALER
// socket would see on the wire.
func EncodeEnvelope(e Envelope) [][]byte {
	return [][]byte{e.Identity, nil, e.Payload}
}

// DecodeEnvelope parses a three-part frame back into an Envelope.
func DecodeEnvelope(frames [][]byte) (Envelope, error) {
	if len(frames) != 3 {
		return Envelope{}, errors.New("replay: envelope must have exactly 3 frames")
	}
	if len(frames[1]) != 0 {
		return Envelope{}, errors.New("replay: envelope's delimiter frame must be empty")
	}
	return Envelope{Identity: frames[0], Payload: frames[2]}, nil
}

// Transport is the boundary a real identity-addressed ZMQ channel would
// implement. LocalTransport is the only concrete implementation this
// package ships; it stands in for the excluded transport in tests.
type Transport interface {
	Send(Envelope) error
	Recv() (Envelope, error)
	Close() error
}

// LocalTransport is an in-process Transport backed by a pair of
// channels, enough to exercise the Envelope contract without a socket.
type LocalTransport struct {
	out    chan Envelope
	in     <-chan Envelope
	closed chan struct{}
}

// NewLocalTransportPair returns two LocalTransports wired to each other:
// whatever a sends, b receives, and vice versa.
func NewLocalTransportPair(buffer int) (a, b *LocalTransport) {
	ab := make(chan Envelope, buffer)
	ba := make(chan Envelope, buffer)
	a = &LocalTransport{out: ab, in: ba, closed: make(chan struct{})}
	b = &LocalTransport{out: ba, in: ab, closed: make(chan struct{})}
	return a, b
}

// Send enqueues e for the peer transport, or fails if Close was called.
func (t *LocalTransport) Send(e Envelope) error {
	select {
	case t.out <- e:
		return nil
	case <-t.closed:
		return errors.New("replay: transport closed")
	}
}

// Recv blocks for the next envelope sent by the peer transport.
func (t *LocalTransport) Recv() (Envelope, error) {
	select {
	case e := <-t.in:
		return e, nil
	case <-t.closed:
		return Envelope{}, errors.New("replay: transport closed")
	}
}

// Close is idempotent; it unblocks any pending Send/Recv.
func (t *LocalTransport) Close() error {
	select {
	case <-t.closed:
	default:
		close(t.closed)
	}
	return nil
}

// ReconnectJitter generates exponentially distributed backoff delays
// for a transport's reconnect loop.
type ReconnectJitter struct {
	gen  *rng.ExpGenerator
	rate float64
}

// NewReconnectJitter returns a jitter source with the given exponential
// rate parameter (higher rate, shorter average delay).
func NewReconnectJitter(seed int64, rate float64) *ReconnectJitter {
	return &ReconnectJitter{gen: rng.NewExpGenerator(seed), rate: rate}
}

// Next draws one backoff duration.
func (j *ReconnectJitter) Next() time.Duration {
	return time.Duration(j.gen.Exp(j.rate) * float64(time.Second))
}
