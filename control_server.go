package tr1pd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// maxFrameSize bounds a single control-protocol datagram: one tag byte,
// one recipe tag byte, a u16 length, and up to 65535 payload bytes, with
// slack for the outer request tag.
const maxFrameSize = 1 + 1 + 2 + 65535 + 64

// Server is the daemon side of the control protocol: a single-threaded
// accept loop over a local Unix datagram socket. It never mutates the
// Engine concurrently with itself — recv, handle and reply run strictly
// in sequence, matching §5's concurrency model.
type Server struct {
	engine *Engine
	conn   *net.UnixConn
	path   string
	log    zerolog.Logger
}

// NewServer binds a Unix datagram socket at path, setting its mode to
// 0770 once bound, and returns a Server ready to Serve requests against
// engine.
func NewServer(engine *Engine, path string, log zerolog.Logger) (*Server, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unixgram", path)
	if err != nil {
		return nil, fmt.Errorf("resolve socket address: %w", err)
	}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := unix.Chmod(path, 0770); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	return &Server{engine: engine, conn: conn, path: path, log: log}, nil
}

// Serve runs the recv → handle → reply loop until ctx is cancelled or a
// transport-fatal error occurs.
func (s *Server) Serve(ctx context.Context) error {
	// Closing the socket on cancellation unblocks a pending read.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.Close()
		case <-stop:
		}
	}()

	buf := make([]byte, maxFrameSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, clientAddr, err := s.conn.ReadFromUnix(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read from socket: %w", err)
		}

		reqID := uuid.New()
		resp, ok := s.handleFrame(reqID, buf[:n])
		if !ok {
			// Frame didn't decode: a protocol-level write failure gets a
			// Nack, but input we couldn't parse at all isn't a request we
			// can answer, so it's logged and dropped rather than replied to.
			continue
		}

		out, err := EncodeResponse(resp)
		if err != nil {
			s.log.Error().Str("req", reqID.String()).Err(err).Msg("encode response")
			continue
		}
		if clientAddr == nil {
			// No return address on this datagram; nothing to reply to.
			continue
		}
		if _, err := s.conn.WriteToUnix(out, clientAddr); err != nil {
			s.log.Error().Str("req", reqID.String()).Err(err).Msg("write response")
		}
	}
}

// handleFrame decodes and dispatches a single request frame. The second
// return value is false when the frame could not be decoded at all, in
// which case the caller drops it rather than sending a reply.
func (s *Server) handleFrame(reqID uuid.UUID, frame []byte) (CtlResponse, bool) {
	req, err := DecodeRequest(frame)
	if err != nil {
		s.log.Error().Str("req", reqID.String()).Err(err).Msg("decode request: dropping")
		return nil, false
	}

	switch r := req.(type) {
	case ReqPing:
		s.log.Debug().Str("req", reqID.String()).Msg("ping")
		return RespPong{}, true
	case ReqWrite:
		ptr, err := s.engine.Recipe(r.Recipe)
		if err != nil {
			s.log.Error().Str("req", reqID.String()).Err(err).Msg("engine write failed")
			return RespNack{}, true
		}
		s.log.Info().Str("req", reqID.String()).Str("pointer", ptr.String()).Msg("write committed")
		return RespAck{Pointer: ptr}, true
	default:
		return RespNack{}, true
	}
}

// Close releases the underlying socket.
func (s *Server) Close() error {
	err := s.conn.Close()
	_ = os.Remove(s.path)
	return err
}
