package ai

// LoopbackLink is an in-process CommLink used by tests in place of the
// excluded Lua/ZMQ/Python transport: it echoes the payload it is given
// through a caller-supplied handler rather than crossing any process
// boundary.
type LoopbackLink struct {
	Handler func(payload []byte) ([]byte, error)
}

// SendWaitReply invokes Handler synchronously. A nil Handler is treated
// as an identity echo.
func (l *LoopbackLink) SendWaitReply(payload []byte) ([]byte, error) {
	if l.Handler == nil {
		return payload, nil
	}
	return l.Handler(payload)
}
