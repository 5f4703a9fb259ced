package tr1pd

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Client is the control-protocol client pattern: connect once, then for
// each call send a request frame and block until the matching reply
// arrives. The underlying transport is a datagram-style Unix socket, so
// the client needs its own bound local address to receive replies on.
type Client struct {
	conn      *net.UnixConn
	localPath string
}

// Dial connects to the daemon's control socket at path.
func Dial(path string) (*Client, error) {
	raddr, err := net.ResolveUnixAddr("unixgram", path)
	if err != nil {
		return nil, fmt.Errorf("resolve socket address: %w", err)
	}

	localPath := filepath.Join(os.TempDir(), fmt.Sprintf("tr1pdctl-%d-%s.sock", os.Getpid(), uuid.NewString()))
	laddr, err := net.ResolveUnixAddr("unixgram", localPath)
	if err != nil {
		return nil, fmt.Errorf("resolve local address: %w", err)
	}

	conn, err := net.DialUnix("unixgram", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial socket: %w", err)
	}

	return &Client{conn: conn, localPath: localPath}, nil
}

func (c *Client) call(req CtlRequest) (CtlResponse, error) {
	buf, err := EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(buf); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	respBuf := make([]byte, maxFrameSize)
	n, err := c.conn.Read(respBuf)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return DecodeResponse(respBuf[:n])
}

// Ping sends Ping and expects Pong.
func (c *Client) Ping() error {
	resp, err := c.call(ReqPing{})
	if err != nil {
		return err
	}
	if _, ok := resp.(RespPong); !ok {
		return fmt.Errorf("%w: got %T, want Pong", ErrUnexpectedResponse, resp)
	}
	return nil
}

// Write sends Write(recipe) and returns the pointer from a successful Ack.
func (c *Client) Write(recipe BlockRecipe) (BlockPointer, error) {
	resp, err := c.call(ReqWrite{Recipe: recipe})
	if err != nil {
		return BlockPointer{}, err
	}
	switch r := resp.(type) {
	case RespAck:
		return r.Pointer, nil
	case RespNack:
		return BlockPointer{}, fmt.Errorf("%w: daemon nacked the write", ErrUnexpectedResponse)
	default:
		return BlockPointer{}, fmt.Errorf("%w: got %T, want Ack/Nack", ErrUnexpectedResponse, resp)
	}
}

// Close disconnects. The brief sleep afterward is a workaround for
// lingering writes on some Unix datagram socket stacks: without it, a
// tight Dial/Close/Dial cycle can occasionally see a stale socket's last
// datagram delivered to the next client bound to a reused path.
func (c *Client) Close() error {
	err := c.conn.Close()
	time.Sleep(10 * time.Millisecond)
	_ = os.Remove(c.localPath)
	return err
}
