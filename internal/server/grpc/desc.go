// Package grpc exposes the marketplace services over gRPC.
//
// The gophmarket.MarketService descriptor in this file is written by hand
// rather than generated by protoc. Every method is unary and takes and
// returns a google.protobuf.Struct holding the JSON form of the request and
// response types in handler.go; payload.go converts between the two. Clients
// call methods by full name (see FullMethod) with structpb values.
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "gophmarket.MarketService"

// MarketServiceServer is the server API of gophmarket.MarketService.
type MarketServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Profile(context.Context, *structpb.Struct) (*structpb.Struct, error)

	ListCards(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProxies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOffers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PurchaseCard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PurchaseProxy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PurchaseOffer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOrders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)

	CreateCard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProxy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestCardVideoUpload(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdminListCards(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdminListProxies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateOffer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetOfferActive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateOfferPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddOfferCard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveOfferCard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdminListOffers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOfferCards(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApproveUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SuspendUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreditUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type access int

const (
	accessPublic access = iota
	accessBuyer
	accessAdmin
)

type method struct {
	name   string
	access access
	call   func(MarketServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var methods = []method{
	{"Register", accessPublic, MarketServiceServer.Register},
	{"Login", accessPublic, MarketServiceServer.Login},
	{"RefreshToken", accessPublic, MarketServiceServer.RefreshToken},
	{"Profile", accessBuyer, MarketServiceServer.Profile},

	{"ListCards", accessBuyer, MarketServiceServer.ListCards},
	{"ListProxies", accessBuyer, MarketServiceServer.ListProxies},
	{"ListOffers", accessBuyer, MarketServiceServer.ListOffers},
	{"PurchaseCard", accessBuyer, MarketServiceServer.PurchaseCard},
	{"PurchaseProxy", accessBuyer, MarketServiceServer.PurchaseProxy},
	{"PurchaseOffer", accessBuyer, MarketServiceServer.PurchaseOffer},
	{"ListOrders", accessBuyer, MarketServiceServer.ListOrders},
	{"GetOrder", accessBuyer, MarketServiceServer.GetOrder},

	{"CreateCard", accessAdmin, MarketServiceServer.CreateCard},
	{"CreateProxy", accessAdmin, MarketServiceServer.CreateProxy},
	{"RequestCardVideoUpload", accessAdmin, MarketServiceServer.RequestCardVideoUpload},
	{"AdminListCards", accessAdmin, MarketServiceServer.AdminListCards},
	{"AdminListProxies", accessAdmin, MarketServiceServer.AdminListProxies},
	{"CreateOffer", accessAdmin, MarketServiceServer.CreateOffer},
	{"SetOfferActive", accessAdmin, MarketServiceServer.SetOfferActive},
	{"UpdateOfferPrice", accessAdmin, MarketServiceServer.UpdateOfferPrice},
	{"AddOfferCard", accessAdmin, MarketServiceServer.AddOfferCard},
	{"RemoveOfferCard", accessAdmin, MarketServiceServer.RemoveOfferCard},
	{"AdminListOffers", accessAdmin, MarketServiceServer.AdminListOffers},
	{"ListOfferCards", accessAdmin, MarketServiceServer.ListOfferCards},
	{"ApproveUser", accessAdmin, MarketServiceServer.ApproveUser},
	{"SuspendUser", accessAdmin, MarketServiceServer.SuspendUser},
	{"CreditUser", accessAdmin, MarketServiceServer.CreditUser},
}

// FullMethod returns the gRPC path of a MarketService method.
func FullMethod(name string) string {
	return "/" + serviceName + "/" + name
}

// methodAccess is keyed by full method name. Unknown methods require admin.
var methodAccess = func() map[string]access {
	m := make(map[string]access, len(methods))
	for _, md := range methods {
		m[FullMethod(md.name)] = md.access
	}
	return m
}()

func unaryHandler(md method) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: md.name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return md.call(srv.(MarketServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(md.name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return md.call(srv.(MarketServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var marketServiceDesc = func() grpc.ServiceDesc {
	sd := grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*MarketServiceServer)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "gophmarket/market.proto",
	}
	for _, md := range methods {
		sd.Methods = append(sd.Methods, unaryHandler(md))
	}
	return sd
}()
