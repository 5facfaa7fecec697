package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

/*************
 * Fake market server
 *************/

type fakeMarket struct {
	mu        sync.Mutex
	refreshes int
	seen      []string
}

func (f *fakeMarket) serve(ctx context.Context, method string, req map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch method {
	case "Login":
		if req["password"] != "pw" {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return map[string]any{"accessToken": "a1", "refreshToken": "r1"}, nil

	case "RefreshToken":
		f.refreshes++
		if req["refreshToken"] != "r1" {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return map[string]any{"accessToken": "a2", "refreshToken": "r2"}, nil

	case "RequestCardVideoUpload":
		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
				token = v[0]
			}
		}
		f.seen = append(f.seen, token)
		switch token {
		case "a1":
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		case "a2":
			return map[string]any{"uploadUrl": "https://upload/" + req["id"].(string)}, nil
		default:
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}
	}
	return nil, status.Error(codes.Unimplemented, method)
}

func (f *fakeMarket) desc() *grpc.ServiceDesc {
	sd := &grpc.ServiceDesc{
		ServiceName: "gophmarket.MarketService",
		HandlerType: (*interface{})(nil),
	}
	for _, name := range []string{"Login", "RefreshToken", "RequestCardVideoUpload"} {
		name := name
		sd.Methods = append(sd.Methods, grpc.MethodDesc{
			MethodName: name,
			Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := &structpb.Struct{}
				if err := dec(in); err != nil {
					return nil, err
				}
				out, err := f.serve(ctx, name, in.AsMap())
				if err != nil {
					return nil, err
				}
				return structpb.NewStruct(out)
			},
		})
	}
	return sd
}

func newClient(t *testing.T) (*GRPCClient, *fakeMarket) {
	t.Helper()

	fake := &fakeMarket{}
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(fake.desc(), fake)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewMarketClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}

func TestLogin_WrongPassword(t *testing.T) {
	c, _ := newClient(t)

	err := c.Login(context.Background(), "root", "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized), err)
}

func TestRequestCardVideoUpload_RefreshesExpiredToken(t *testing.T) {
	c, fake := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "root", "pw"))

	url, err := c.RequestCardVideoUpload(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, "https://upload/card-1", url)
	assert.Equal(t, 1, fake.refreshes)
	assert.Equal(t, []string{"a1", "a2"}, fake.seen)

	access, refresh := c.tokens()
	assert.Equal(t, "a2", access)
	assert.Equal(t, "r2", refresh)
}

func TestRequestCardVideoUpload_NoTokens(t *testing.T) {
	c, fake := newClient(t)

	_, err := c.RequestCardVideoUpload(context.Background(), "card-1")
	assert.True(t, errors.Is(err, ErrUnauthorized), err)
	assert.Equal(t, 0, fake.refreshes)
}

func TestCall_UnknownMethod(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.Call(context.Background(), "Nope", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Contains(t, err.Error(), "rpc error")
}

func TestWithAccessToken_ReplacesHeader(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "old", "x-other", "1")
	ctx = withAccessToken(ctx, "new")

	md, _ := metadata.FromOutgoingContext(ctx)
	assert.Equal(t, []string{"new"}, md.Get(common.AccessTokenHeaderName))
	assert.Equal(t, []string{"1"}, md.Get("x-other"))
}
