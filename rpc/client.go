package rpc

import (
	"bytes"
	"context"

	"graphwire/gwire"
	"graphwire/store"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Client stores values in a remote object cache. Values are encoded and
// decoded locally with the client's engine.
type Client struct {
	conn   *grpc.ClientConn
	api    ObjectCacheClient
	engine *gwire.Engine
}

func Dial(target string, engine *gwire.Engine, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.Dial(target, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error dialing rpc server")
	}
	c := NewClient(conn, engine)
	c.conn = conn
	return c, nil
}

// NewClient wraps an existing connection. Close does not close conn.
func NewClient(conn grpc.ClientConnInterface, engine *gwire.Engine) *Client {
	if engine == nil {
		engine = gwire.DefaultEngine()
	}
	return &Client{
		api:    NewObjectCacheClient(conn),
		engine: engine,
	}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) Put(ctx context.Context, key string, v interface{}) (*PutRes, error) {
	var buf bytes.Buffer
	if err := c.engine.Encode(v, &buf); err != nil {
		return nil, errors.Wrapf(err, "error encoding value for %s", key)
	}
	return c.PutRaw(ctx, key, buf.Bytes())
}

func (c *Client) PutRaw(ctx context.Context, key string, payload []byte) (*PutRes, error) {
	res, err := c.api.Put(ctx, &PutReq{Key: key, Payload: payload})
	if err != nil {
		return nil, fromStatus(err, key)
	}
	return res, nil
}

func (c *Client) GetRaw(ctx context.Context, key string) ([]byte, error) {
	res, err := c.api.Get(ctx, &GetReq{Key: key})
	if err != nil {
		return nil, fromStatus(err, key)
	}
	return res.Payload, nil
}

func (c *Client) Get(ctx context.Context, key string) (interface{}, error) {
	payload, err := c.GetRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	v, err := c.engine.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding value for %s", key)
	}
	return v, nil
}

func (c *Client) GetInto(ctx context.Context, key string, ptr interface{}) error {
	payload, err := c.GetRaw(ctx, key)
	if err != nil {
		return err
	}
	if err := c.engine.DecodeInto(bytes.NewReader(payload), ptr); err != nil {
		return errors.Wrapf(err, "error decoding value for %s", key)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.api.Delete(ctx, &DeleteReq{Key: key})
	return fromStatus(err, key)
}

func (c *Client) Keys(ctx context.Context, prefix string) ([]string, error) {
	res, err := c.api.List(ctx, &ListReq{Prefix: prefix})
	if err != nil {
		return nil, fromStatus(err, prefix)
	}
	return res.Keys, nil
}

func (c *Client) Status(ctx context.Context) (*StatusRes, error) {
	res, err := c.api.Status(ctx, emptyRes)
	if err != nil {
		return nil, fromStatus(err, "")
	}
	return res, nil
}

// fromStatus maps store failures back to the store sentinels so callers
// can match them with errors.Is on either side of the connection.
func fromStatus(err error, key string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return errors.Wrapf(store.ErrNotFound, "object %s", key)
	case codes.DataLoss:
		return errors.Wrapf(store.ErrCorrupt, "object %s", key)
	}
	return err
}
