package ipc

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

// Dial connects to the IPC server at the given socket path.
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
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start watching and organizing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Tidy.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Tidy.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Tidy.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DupesList returns the current duplicate groups.
func (c *Client) DupesList() (*DupesListResponse, error) {
	var resp DupesListResponse
	if err := c.client.Call("Tidy.DupesList", DupesListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DupesResolve applies a resolution policy to one duplicate group.
func (c *Client) DupesResolve(req DupesResolveRequest) (*DupesResolveResponse, error) {
	var resp DupesResolveResponse
	if err := c.client.Call("Tidy.DupesResolve", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History queries the organize log.
func (c *Client) History(req HistoryRequest) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Tidy.History", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Watched describes the monitored root and routing snapshot.
func (c *Client) Watched() (*WatchedResponse, error) {
	var resp WatchedResponse
	if err := c.client.Call("Tidy.Watched", WatchedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reload re-reads the config file and applies routes and ignore rules.
func (c *Client) Reload() (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.client.Call("Tidy.Reload", ReloadRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail reads daemon log lines starting from the requested offset.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Tidy.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rescan re-hashes the library into the hash database.
func (c *Client) Rescan() (*RescanResponse, error) {
	var resp RescanResponse
	if err := c.client.Call("Tidy.Rescan", RescanRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
