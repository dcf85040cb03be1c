package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

type attemptState int

const (
	stateConnected attemptState = iota
	stateTimedOut
	stateErrored
)

type outcome struct {
	state attemptState
	err   error
}

// attempt opens one TCP connection bounded by timeout and closes it right
// away. The socket never outlives the call.
func (e *Engine) attempt(ctx context.Context, host string, port int, timeout time.Duration) outcome {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dial := e.Dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	conn, err := dial(actx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		// a cancelled parent (lost race, client gone) is not a timeout
		if ctx.Err() == nil && isTimeout(err) {
			return outcome{state: stateTimedOut, err: err}
		}
		return outcome{state: stateErrored, err: err}
	}
	_ = conn.Close()
	return outcome{state: stateConnected}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
