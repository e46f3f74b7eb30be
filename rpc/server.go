package rpc

import (
	"context"
	"net"
	"strconv"

	"graphwire/crypto"
	"graphwire/log"
	"graphwire/store"
	"graphwire/util"
	"graphwire/version"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	DefaultMaxConcurrentRequests = 64
	DefaultMaxWritesPerSecond    = 500
	DefaultWriteBurst            = 50
)

var emptyRes = &Empty{}

type Opts struct {
	Store                 *store.Store
	Host                  string
	Port                  int
	MaxConcurrentRequests int
	MaxWritesPerSecond    float64
	WriteBurst            int
}

// Server serves pre-encoded payloads out of a Store. It never decodes
// the payloads, so it needs no knowledge of client types.
type Server struct {
	host      string
	port      int
	st        *store.Store
	keyLocker util.MultiLocker
	requests  *semaphore.Weighted
	writes    *rate.Limiter
	inFlight  atomic.Int64
	lgr       log.Logger
	srv       *grpc.Server
}

var _ ObjectCacheServer = (*Server)(nil)

func NewServer(opts *Opts) *Server {
	maxReqs := opts.MaxConcurrentRequests
	if maxReqs <= 0 {
		maxReqs = DefaultMaxConcurrentRequests
	}
	perSec := opts.MaxWritesPerSecond
	if perSec <= 0 {
		perSec = DefaultMaxWritesPerSecond
	}
	burst := opts.WriteBurst
	if burst <= 0 {
		burst = DefaultWriteBurst
	}

	return &Server{
		host:      opts.Host,
		port:      opts.Port,
		st:        opts.Store,
		keyLocker: util.NewMultiLocker(),
		requests:  semaphore.NewWeighted(int64(maxReqs)),
		writes:    rate.NewLimiter(rate.Limit(perSec), burst),
		lgr:       log.WithModule("rpc-server"),
	}
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return errors.Wrap(err, "error opening rpc listener")
	}
	s.lgr.Info("rpc server listening", "addr", lis.Addr().String())
	return s.Serve(lis)
}

// Serve accepts connections on lis in the background.
func (s *Server) Serve(lis net.Listener) error {
	s.srv = grpc.NewServer(
		grpc.ForceServerCodec(messageCodec),
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.UnaryInterceptor(s.intercept),
	)
	RegisterObjectCacheServer(s.srv, s)
	go func() {
		if err := s.srv.Serve(lis); err != nil {
			s.lgr.Error("rpc server stopped", "err", err)
		}
	}()
	return nil
}

func (s *Server) Stop() error {
	if s.srv != nil {
		s.srv.GracefulStop()
	}
	return nil
}

func (s *Server) intercept(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if err := s.requests.Acquire(ctx, 1); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	defer s.requests.Release(1)
	s.inFlight.Inc()
	defer s.inFlight.Dec()

	res, err := handler(ctx, req)
	if err != nil {
		s.lgr.Debug("rpc request failed", "method", info.FullMethod, "err", err)
	} else {
		s.lgr.Trace("rpc request served", "method", info.FullMethod)
	}
	return res, err
}

func (s *Server) Put(_ context.Context, req *PutReq) (*PutRes, error) {
	if req.Key == "" {
		return nil, status.Error(codes.InvalidArgument, "key cannot be empty")
	}
	if len(req.Payload) == 0 {
		return nil, status.Error(codes.InvalidArgument, "payload cannot be empty")
	}
	if !s.writes.Allow() {
		return nil, status.Error(codes.ResourceExhausted, "write rate exceeded")
	}
	if !s.keyLocker.TryLock(req.Key) {
		return nil, status.Errorf(codes.Aborted, "key %s is busy", req.Key)
	}
	defer s.keyLocker.Unlock(req.Key)

	if err := s.st.PutRaw(req.Key, req.Payload); err != nil {
		return nil, toStatus(err)
	}
	return &PutRes{
		Checksum: crypto.Blake2B256(req.Payload).String(),
		Size:     int64(len(req.Payload)),
	}, nil
}

func (s *Server) Get(_ context.Context, req *GetReq) (*GetRes, error) {
	if req.Key == "" {
		return nil, status.Error(codes.InvalidArgument, "key cannot be empty")
	}
	if !s.keyLocker.TryRLock(req.Key) {
		return nil, status.Errorf(codes.Aborted, "key %s is busy", req.Key)
	}
	defer s.keyLocker.RUnlock(req.Key)

	payload, err := s.st.GetRaw(req.Key)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetRes{Payload: payload}, nil
}

func (s *Server) Delete(_ context.Context, req *DeleteReq) (*Empty, error) {
	if req.Key == "" {
		return nil, status.Error(codes.InvalidArgument, "key cannot be empty")
	}
	if !s.writes.Allow() {
		return nil, status.Error(codes.ResourceExhausted, "write rate exceeded")
	}
	if !s.keyLocker.TryLock(req.Key) {
		return nil, status.Errorf(codes.Aborted, "key %s is busy", req.Key)
	}
	defer s.keyLocker.Unlock(req.Key)

	if err := s.st.Delete(req.Key); err != nil {
		return nil, toStatus(err)
	}
	return emptyRes, nil
}

func (s *Server) List(_ context.Context, req *ListReq) (*ListRes, error) {
	keys, err := s.st.Keys(req.Prefix)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListRes{Keys: keys}, nil
}

func (s *Server) Status(context.Context, *Empty) (*StatusRes, error) {
	stats, err := s.st.Stats()
	if err != nil {
		return nil, toStatus(err)
	}
	return &StatusRes{
		Version:     version.UserAgent,
		Objects:     int64(stats.Objects),
		Cached:      int64(stats.Cached),
		Compression: stats.Compression.String(),
		InFlight:    s.inFlight.Load(),
		LockedKeys:  int64(s.keyLocker.Held()),
	}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, store.ErrInvalidKey):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, store.ErrCorrupt):
		return status.Error(codes.DataLoss, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
