package socketrpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

var _ model.Engine = (*Client)(nil)

// Client implements model.Engine over a Unix domain socket using JSON-RPC 2.0.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
	timeout time.Duration
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
		timeout: 10 * time.Second,
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(method string, params interface{}, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := Request{JSONRPC: "2.0", ID: c.nextID, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("socketrpc: marshal params: %w", err)
		}
		req.Params = data
	}

	c.conn.SetDeadline(time.Now().Add(c.timeout))
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("socketrpc: send: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("socketrpc: read: %w", err)
		}
		return fmt.Errorf("socketrpc: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("socketrpc: response id %d does not match request %d", resp.ID, req.ID)
	}
	if resp.Error != nil {
		return resp.Error
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *Client) Snapshot() (model.Snapshot, error) {
	var result model.Snapshot
	err := c.call("Snapshot", nil, &result)
	return result, err
}

func (c *Client) Timeline() (deploy.Timeline, error) {
	var result deploy.Timeline
	err := c.call("Timeline", nil, &result)
	return result, err
}

func (c *Client) Play() error {
	return c.call("Play", nil, nil)
}

func (c *Client) Pause() error {
	return c.call("Pause", nil, nil)
}

func (c *Client) Reset() error {
	return c.call("Reset", nil, nil)
}

func (c *Client) Seek(progress float64) error {
	return c.call("Seek", map[string]interface{}{"Progress": progress}, nil)
}

func (c *Client) Step(dir model.Direction) error {
	return c.call("Step", map[string]interface{}{"Direction": dir}, nil)
}

func (c *Client) SetSpeed(multiplier float64) error {
	return c.call("SetSpeed", map[string]interface{}{"Multiplier": multiplier}, nil)
}

func (c *Client) JumpToEvent(index int) error {
	return c.call("JumpToEvent", map[string]interface{}{"Index": index}, nil)
}
