package bridge

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the bridge server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Greet asks the daemon for a greeting.
func (c *Client) Greet(name string) (string, error) {
	var resp GreetResponse
	if err := c.call("Greet", GreetRequest{Name: name}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// HandleDropfile inspects a path without recording it.
func (c *Client) HandleDropfile(path string) (*HandleDropfileResponse, error) {
	var resp HandleDropfileResponse
	if err := c.call("HandleDropfile", HandleDropfileRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DragDrop reports a drop release.
func (c *Client) DragDrop(req DragDropRequest) (*DragDropResponse, error) {
	var resp DragDropResponse
	if err := c.call("DragDrop", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReportLayout updates or removes an element's bounds.
func (c *Client) ReportLayout(req ReportLayoutRequest) (*ReportLayoutResponse, error) {
	var resp ReportLayoutResponse
	if err := c.call("ReportLayout", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History retrieves the history snapshot.
func (c *Client) History() (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.call("History", HistoryRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
