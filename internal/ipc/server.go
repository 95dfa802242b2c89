package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"tidy/internal/api"
	"tidy/internal/daemon"
	"tidy/internal/dupes"
	"tidy/internal/logging"
	"tidy/internal/logs"
	"tidy/internal/store"
)

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
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Tidy", srv); err != nil {
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
					logging.String(logging.FieldEventType, "ipc_accept_failed"))
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
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	if !status.StartedAt.IsZero() {
		resp.StartedAt = status.StartedAt.Format(time.RFC3339)
	}
	resp.WatchDir = status.WatchDir
	resp.LibraryDir = status.LibraryDir
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockFilePath
	resp.DBRecovered = status.DBRecovered
	resp.Organized = status.Organized
	resp.Skipped = status.Skipped
	resp.Failed = status.Failed
	resp.HashEntries = status.DatabaseCounts.HashEntries
	resp.FileRecords = status.DatabaseCounts.FileRecords
	resp.DuplicateGroups = status.DatabaseCounts.DuplicateGroups
	resp.OrganizedTotal = status.DatabaseCounts.OrganizedTotal
	if counts, err := s.daemon.CategoryCounts(s.ctx); err == nil && len(counts) > 0 {
		resp.CategoryCounts = counts
	}
	return nil
}

func (s *service) DupesList(_ DupesListRequest, resp *DupesListResponse) error {
	groups, err := s.daemon.ListDuplicates(s.ctx)
	if err != nil {
		return err
	}
	resp.Groups = make([]api.DuplicateGroupView, 0, len(groups))
	for _, group := range groups {
		resp.Groups = append(resp.Groups, api.FromDuplicateGroup(group))
	}
	return nil
}

func (s *service) DupesResolve(req DupesResolveRequest, resp *DupesResolveResponse) error {
	if req.Digest == "" {
		return errors.New("dupes resolve requires a digest")
	}
	policy, err := dupes.ParsePolicy(req.Policy)
	if err != nil {
		return err
	}
	s.logger.Debug("dupes resolve requested",
		logging.String("digest", req.Digest),
		logging.String("policy", req.Policy))
	resolution, err := s.daemon.ResolveDuplicates(s.ctx, req.Digest, policy, req.Paths)
	if err != nil {
		return err
	}
	resp.Resolution = api.FromResolution(resolution)
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	filter := store.HistoryFilter{
		Limit:    req.Limit,
		Category: req.Category,
	}
	if req.Since != "" {
		since, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			return fmt.Errorf("parse since: %w", err)
		}
		filter.Since = since
	}
	if req.Until != "" {
		until, err := time.Parse(time.RFC3339, req.Until)
		if err != nil {
			return fmt.Errorf("parse until: %w", err)
		}
		filter.Until = until
	}

	records, err := s.daemon.History(s.ctx, filter)
	if err != nil {
		return err
	}
	resp.Records = make([]api.HistoryRecordView, 0, len(records))
	for _, rec := range records {
		resp.Records = append(resp.Records, api.FromOrganizedRecord(rec))
	}
	return nil
}

func (s *service) Watched(_ WatchedRequest, resp *WatchedResponse) error {
	root, debounce, categories, fallback := s.daemon.Watched()
	resp.Root = root
	resp.DebounceMs = debounce.Milliseconds()
	resp.Categories = categories
	resp.Fallback = fallback
	return nil
}

func (s *service) Reload(_ ReloadRequest, resp *ReloadResponse) error {
	s.logger.Debug("config reload requested")
	if err := s.daemon.Reload(s.ctx); err != nil {
		resp.Reloaded = false
		resp.Message = err.Error()
		return nil
	}
	resp.Reloaded = true
	s.logger.Info("configuration reloaded via IPC",
		logging.String(logging.FieldEventType, "config_reload"))
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	result, err := logs.Tail(s.ctx, s.daemon.LogPath(), logs.Options{
		Offset: req.Offset,
		Limit:  req.Lines,
		Follow: req.Follow,
		Wait:   time.Duration(req.WaitMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) Rescan(_ RescanRequest, resp *RescanResponse) error {
	s.logger.Debug("library rescan requested")
	indexed, err := s.daemon.Rescan(s.ctx)
	if err != nil {
		return err
	}
	resp.Indexed = indexed
	s.logger.Info("library rescan complete",
		logging.String(logging.FieldEventType, "library_rescan"),
		logging.Int64("indexed", indexed))
	return nil
}
