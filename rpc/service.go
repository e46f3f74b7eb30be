package rpc

import (
	"context"

	"graphwire/gwire"

	"google.golang.org/grpc"
)

const ServiceName = "graphwire.v1.ObjectCache"

type PutReq struct {
	Key     string
	Payload []byte
}

type PutRes struct {
	Checksum string
	Size     int64
}

type GetReq struct {
	Key string
}

type GetRes struct {
	Payload []byte
}

type DeleteReq struct {
	Key string
}

type ListReq struct {
	Prefix string
}

type ListRes struct {
	Keys []string
}

type Empty struct{}

type StatusRes struct {
	Version     string
	Objects     int64
	Cached      int64
	Compression string
	InFlight    int64
	LockedKeys  int64
}

// ObjectCacheServer is the server side of the object cache service.
type ObjectCacheServer interface {
	Put(context.Context, *PutReq) (*PutRes, error)
	Get(context.Context, *GetReq) (*GetRes, error)
	Delete(context.Context, *DeleteReq) (*Empty, error)
	List(context.Context, *ListReq) (*ListRes, error)
	Status(context.Context, *Empty) (*StatusRes, error)
}

// ObjectCacheClient is the client side of the object cache service.
type ObjectCacheClient interface {
	Put(ctx context.Context, in *PutReq, opts ...grpc.CallOption) (*PutRes, error)
	Get(ctx context.Context, in *GetReq, opts ...grpc.CallOption) (*GetRes, error)
	Delete(ctx context.Context, in *DeleteReq, opts ...grpc.CallOption) (*Empty, error)
	List(ctx context.Context, in *ListReq, opts ...grpc.CallOption) (*ListRes, error)
	Status(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*StatusRes, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type objectCacheClient struct {
	cc grpc.ClientConnInterface
}

// NewObjectCacheClient returns a client stub that frames every call with
// the gwire codec, whatever codec the connection defaults to.
func NewObjectCacheClient(cc grpc.ClientConnInterface) ObjectCacheClient {
	return &objectCacheClient{cc: cc}
}

func (c *objectCacheClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(messageCodec)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *objectCacheClient) Put(ctx context.Context, in *PutReq, opts ...grpc.CallOption) (*PutRes, error) {
	out := new(PutRes)
	if err := c.invoke(ctx, "Put", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *objectCacheClient) Get(ctx context.Context, in *GetReq, opts ...grpc.CallOption) (*GetRes, error) {
	out := new(GetRes)
	if err := c.invoke(ctx, "Get", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *objectCacheClient) Delete(ctx context.Context, in *DeleteReq, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.invoke(ctx, "Delete", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *objectCacheClient) List(ctx context.Context, in *ListReq, opts ...grpc.CallOption) (*ListRes, error) {
	out := new(ListRes)
	if err := c.invoke(ctx, "List", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *objectCacheClient) Status(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*StatusRes, error) {
	out := new(StatusRes)
	if err := c.invoke(ctx, "Status", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func putHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PutReq)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ObjectCacheServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Put")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ObjectCacheServer).Put(ctx, req.(*PutReq))
	}
	return interceptor(ctx, in, info, handler)
}

func getHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetReq)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ObjectCacheServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Get")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ObjectCacheServer).Get(ctx, req.(*GetReq))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeleteReq)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ObjectCacheServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Delete")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ObjectCacheServer).Delete(ctx, req.(*DeleteReq))
	}
	return interceptor(ctx, in, info, handler)
}

func listHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListReq)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ObjectCacheServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("List")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ObjectCacheServer).List(ctx, req.(*ListReq))
	}
	return interceptor(ctx, in, info, handler)
}

func statusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ObjectCacheServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Status")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ObjectCacheServer).Status(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var objectCacheServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ObjectCacheServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Put", Handler: putHandler},
		{MethodName: "Get", Handler: getHandler},
		{MethodName: "Delete", Handler: deleteHandler},
		{MethodName: "List", Handler: listHandler},
		{MethodName: "Status", Handler: statusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "graphwire/v1/object_cache",
}

func RegisterObjectCacheServer(s grpc.ServiceRegistrar, srv ObjectCacheServer) {
	s.RegisterService(&objectCacheServiceDesc, srv)
}

func init() {
	for _, msg := range []interface{}{
		&PutReq{}, &PutRes{},
		&GetReq{}, &GetRes{},
		&DeleteReq{},
		&ListReq{}, &ListRes{},
		&Empty{}, &StatusRes{},
	} {
		gwire.Register(msg)
	}
}
