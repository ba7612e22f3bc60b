package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"flashy/internal/daemon"
	"flashy/internal/history"
	"flashy/internal/logging"
	"flashy/internal/state"
	"flashy/internal/usb"
)

// jobLogWaitTimeout bounds a blocking JobLog call so clients poll in rounds
// instead of holding a connection open indefinitely.
const jobLogWaitTimeout = 30 * time.Second

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Flashy", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually before restarting"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func formatWireTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func convertDevice(dev usb.Device) DeviceInfo {
	return DeviceInfo{
		VendorID:    dev.VendorID,
		ProductID:   dev.ProductID,
		Serial:      dev.Serial,
		Bus:         dev.Bus,
		Address:     dev.Address,
		Description: dev.Description,
		Mode:        string(dev.Mode()),
		Targetable:  dev.Targetable(),
	}
}

func convertJob(summary state.JobSummary) JobInfo {
	return JobInfo{
		ID:         summary.ID,
		Serial:     summary.Serial,
		State:      string(summary.State),
		BundleDir:  summary.BundleDir,
		Storage:    summary.Storage,
		ExitCode:   summary.ExitCode,
		Error:      summary.Error,
		StartedAt:  formatWireTime(summary.Started),
		FinishedAt: formatWireTime(summary.Finished),
		LogLines:   summary.LogLines,
	}
}

func convertRecord(rec history.Record) HistoryRecord {
	return HistoryRecord{
		ID:         rec.ID,
		JobID:      rec.JobID,
		Serial:     rec.Serial,
		State:      string(rec.State),
		BundleDir:  rec.BundleDir,
		Storage:    rec.Storage,
		ExitCode:   rec.ExitCode,
		Error:      rec.Error,
		StartedAt:  formatWireTime(rec.Started),
		FinishedAt: formatWireTime(rec.Finished),
		LogTail:    rec.LogTail,
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.DeviceCount = status.DeviceCount
	resp.ScanHealthy = status.Scan.Healthy()
	resp.ScanError = status.Scan.Err
	resp.LastScan = formatWireTime(status.Scan.LastSuccess)
	resp.Job = convertJob(status.Job)
	resp.HistoryDBPath = status.HistoryDBPath
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	return nil
}

func (s *service) Devices(_ DevicesRequest, resp *DevicesResponse) error {
	snap, scan := s.daemon.Snapshot()
	resp.Devices = make([]DeviceInfo, 0, len(snap.Devices))
	for _, dev := range snap.Devices {
		resp.Devices = append(resp.Devices, convertDevice(dev))
	}
	resp.TakenAt = formatWireTime(snap.Taken)
	resp.ScanHealthy = scan.Healthy()
	resp.ScanError = scan.Err
	return nil
}

func (s *service) Flash(req FlashRequest, resp *FlashResponse) error {
	s.log().Debug("flash requested",
		logging.String(logging.FieldSerial, req.Serial),
		logging.String("bundle_dir", req.BundleDir))
	summary, err := s.daemon.RequestFlash(req.Serial, req.BundleDir, req.Storage)
	if err != nil {
		return err
	}
	resp.Job = convertJob(summary)
	return nil
}

func (s *service) Cancel(_ CancelRequest, resp *CancelResponse) error {
	s.log().Debug("cancel requested")
	if err := s.daemon.RequestCancel(); err != nil {
		return err
	}
	resp.Cancelled = true
	return nil
}

func (s *service) JobLog(req JobLogRequest, resp *JobLogResponse) error {
	ctx := s.ctx
	if req.Wait {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, jobLogWaitTimeout)
		defer cancel()
	}
	lines, next, done, err := s.daemon.JobLog(ctx, req.JobID, req.Offset, req.Wait)
	if err != nil {
		return err
	}
	resp.Lines = lines
	resp.Offset = next
	resp.Done = done
	resp.Job = convertJob(s.daemon.CurrentJob())
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	records, err := s.daemon.History(s.ctx, req.Serial, req.Limit)
	if err != nil {
		return err
	}
	resp.Records = make([]HistoryRecord, 0, len(records))
	for _, rec := range records {
		resp.Records = append(resp.Records, convertRecord(rec))
	}
	return nil
}

func (s *service) HistoryClear(_ HistoryClearRequest, resp *HistoryClearResponse) error {
	s.log().Debug("history clear requested")
	if err := s.daemon.ClearHistory(s.ctx); err != nil {
		return err
	}
	resp.Cleared = true
	return nil
}

func (s *service) HistoryStats(_ HistoryStatsRequest, resp *HistoryStatsResponse) error {
	stats, err := s.daemon.HistoryStats(s.ctx)
	if err != nil {
		return err
	}
	resp.Total = stats.Total
	resp.Succeeded = stats.Succeeded
	resp.Failed = stats.Failed
	resp.Cancelled = stats.Cancelled
	return nil
}

func (s *service) ADBDevices(_ ADBDevicesRequest, resp *ADBDevicesResponse) error {
	devices, err := s.daemon.ADBDevices(s.ctx)
	if err != nil {
		return err
	}
	resp.Devices = make([]ADBDeviceInfo, 0, len(devices))
	for _, dev := range devices {
		resp.Devices = append(resp.Devices, ADBDeviceInfo{
			Serial:      dev.Serial,
			State:       dev.State,
			USB:         dev.USB,
			Product:     dev.Product,
			Model:       dev.Model,
			DeviceName:  dev.DeviceName,
			TransportID: dev.TransportID,
			Online:      dev.Online(),
		})
	}
	return nil
}

func (s *service) RebootEDL(req RebootEDLRequest, resp *RebootEDLResponse) error {
	s.log().Debug("reboot edl requested", logging.String("transport_id", req.TransportID))
	if err := s.daemon.RebootEDL(s.ctx, req.TransportID); err != nil {
		return err
	}
	resp.Requested = true
	return nil
}
