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

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Flashy.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Devices retrieves the current device snapshot.
func (c *Client) Devices() (*DevicesResponse, error) {
	var resp DevicesResponse
	if err := c.client.Call("Flashy.Devices", DevicesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Flash starts a flash job.
func (c *Client) Flash(req FlashRequest) (*FlashResponse, error) {
	var resp FlashResponse
	if err := c.client.Call("Flashy.Flash", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel cancels the running flash job.
func (c *Client) Cancel() (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.client.Call("Flashy.Cancel", CancelRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobLog fetches job output starting at an offset.
func (c *Client) JobLog(req JobLogRequest) (*JobLogResponse, error) {
	var resp JobLogResponse
	if err := c.client.Call("Flashy.JobLog", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists persisted flash attempts.
func (c *Client) History(req HistoryRequest) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Flashy.History", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryClear removes all persisted flash attempts.
func (c *Client) HistoryClear() (*HistoryClearResponse, error) {
	var resp HistoryClearResponse
	if err := c.client.Call("Flashy.HistoryClear", HistoryClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryStats retrieves aggregate history counts.
func (c *Client) HistoryStats() (*HistoryStatsResponse, error) {
	var resp HistoryStatsResponse
	if err := c.client.Call("Flashy.HistoryStats", HistoryStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ADBDevices lists adb-visible devices.
func (c *Client) ADBDevices() (*ADBDevicesResponse, error) {
	var resp ADBDevicesResponse
	if err := c.client.Call("Flashy.ADBDevices", ADBDevicesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RebootEDL reboots an adb device into download mode.
func (c *Client) RebootEDL(transportID string) (*RebootEDLResponse, error) {
	var resp RebootEDLResponse
	if err := c.client.Call("Flashy.RebootEDL", RebootEDLRequest{TransportID: transportID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
