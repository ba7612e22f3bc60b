package ipc

// DeviceInfo is the wire representation of a detected USB device.
type DeviceInfo struct {
	VendorID    string `json:"vendor_id"`
	ProductID   string `json:"product_id"`
	Serial      string `json:"serial"`
	Bus         int    `json:"bus"`
	Address     int    `json:"address"`
	Description string `json:"description"`
	Mode        string `json:"mode"`
	Targetable  bool   `json:"targetable"`
}

// JobInfo is the wire representation of a flash job summary.
type JobInfo struct {
	ID         string `json:"id"`
	Serial     string `json:"serial"`
	State      string `json:"state"`
	BundleDir  string `json:"bundle_dir"`
	Storage    string `json:"storage"`
	ExitCode   *int   `json:"exit_code,omitempty"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	LogLines   int    `json:"log_lines"`
}

// HistoryRecord is the wire representation of a persisted flash attempt.
type HistoryRecord struct {
	ID         int64    `json:"id"`
	JobID      string   `json:"job_id"`
	Serial     string   `json:"serial"`
	State      string   `json:"state"`
	BundleDir  string   `json:"bundle_dir"`
	Storage    string   `json:"storage"`
	ExitCode   *int     `json:"exit_code,omitempty"`
	Error      string   `json:"error,omitempty"`
	StartedAt  string   `json:"started_at,omitempty"`
	FinishedAt string   `json:"finished_at,omitempty"`
	LogTail    []string `json:"log_tail,omitempty"`
}

// ADBDeviceInfo is the wire representation of an adb-visible device.
type ADBDeviceInfo struct {
	Serial      string `json:"serial"`
	State       string `json:"state"`
	USB         string `json:"usb,omitempty"`
	Product     string `json:"product,omitempty"`
	Model       string `json:"model,omitempty"`
	DeviceName  string `json:"device_name,omitempty"`
	TransportID string `json:"transport_id,omitempty"`
	Online      bool   `json:"online"`
}

type StatusRequest struct{}

type StatusResponse struct {
	Running       bool    `json:"running"`
	DeviceCount   int     `json:"device_count"`
	ScanHealthy   bool    `json:"scan_healthy"`
	ScanError     string  `json:"scan_error,omitempty"`
	LastScan      string  `json:"last_scan,omitempty"`
	Job           JobInfo `json:"job"`
	HistoryDBPath string  `json:"history_db_path"`
	LockPath      string  `json:"lock_path"`
	SocketPath    string  `json:"socket_path"`
}

type DevicesRequest struct{}

type DevicesResponse struct {
	Devices     []DeviceInfo `json:"devices"`
	TakenAt     string       `json:"taken_at,omitempty"`
	ScanHealthy bool         `json:"scan_healthy"`
	ScanError   string       `json:"scan_error,omitempty"`
}

type FlashRequest struct {
	Serial    string `json:"serial"`
	BundleDir string `json:"bundle_dir"`
	Storage   string `json:"storage,omitempty"`
}

type FlashResponse struct {
	Job JobInfo `json:"job"`
}

type CancelRequest struct{}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type JobLogRequest struct {
	JobID  string `json:"job_id,omitempty"`
	Offset int    `json:"offset"`
	Wait   bool   `json:"wait"`
}

type JobLogResponse struct {
	Lines  []string `json:"lines"`
	Offset int      `json:"offset"`
	Done   bool     `json:"done"`
	Job    JobInfo  `json:"job"`
}

type HistoryRequest struct {
	Serial string `json:"serial,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type HistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

type HistoryClearRequest struct{}

type HistoryClearResponse struct {
	Cleared bool `json:"cleared"`
}

type HistoryStatsRequest struct{}

type HistoryStatsResponse struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

type ADBDevicesRequest struct{}

type ADBDevicesResponse struct {
	Devices []ADBDeviceInfo `json:"devices"`
}

type RebootEDLRequest struct {
	TransportID string `json:"transport_id"`
}

type RebootEDLResponse struct {
	Requested bool `json:"requested"`
}
