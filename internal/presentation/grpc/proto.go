package grpc

// proto.go holds the hand-written service descriptor for risk.v1.RiskService.
// Messages are the application DTOs, carried by the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "risk.v1.RiskService"

// Full method names, used by interceptors.
const (
	MethodListCompanies = "/" + ServiceName + "/ListCompanies"
	MethodScoreCompany  = "/" + ServiceName + "/ScoreCompany"
	MethodScoreRecord   = "/" + ServiceName + "/ScoreRecord"
	MethodRankCompanies = "/" + ServiceName + "/RankCompanies"
	MethodGetRanking    = "/" + ServiceName + "/GetRanking"
)

// ListCompaniesRequest is empty; the method lists the whole dataset.
type ListCompaniesRequest struct{}

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	ListCompanies(context.Context, *ListCompaniesRequest) (*dto.ListCompaniesResponse, error)
	ScoreCompany(context.Context, *dto.ScoreCompanyRequest) (*dto.ScoreResponse, error)
	ScoreRecord(context.Context, *dto.ScoreRecordRequest) (*dto.ScoreResponse, error)
	RankCompanies(context.Context, *dto.RankRequest) (*dto.RankResponse, error)
	GetRanking(context.Context, *dto.GetRankingRequest) (*dto.RankingResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) ListCompanies(context.Context, *ListCompaniesRequest) (*dto.ListCompaniesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListCompanies not implemented")
}
func (UnimplementedRiskServiceServer) ScoreCompany(context.Context, *dto.ScoreCompanyRequest) (*dto.ScoreResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreCompany not implemented")
}
func (UnimplementedRiskServiceServer) ScoreRecord(context.Context, *dto.ScoreRecordRequest) (*dto.ScoreResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreRecord not implemented")
}
func (UnimplementedRiskServiceServer) RankCompanies(context.Context, *dto.RankRequest) (*dto.RankResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RankCompanies not implemented")
}
func (UnimplementedRiskServiceServer) GetRanking(context.Context, *dto.GetRankingRequest) (*dto.RankingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetRanking not implemented")
}
func (UnimplementedRiskServiceServer) mustEmbedUnimplementedRiskServiceServer() {}

// RegisterRiskServiceServer registers the RiskServiceServer with the gRPC server.
func RegisterRiskServiceServer(s grpclib.ServiceRegistrar, srv RiskServiceServer) {
	s.RegisterService(&riskServiceDesc, srv)
}

var riskServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ListCompanies", Handler: unaryHandler(MethodListCompanies, RiskServiceServer.ListCompanies)},
		{MethodName: "ScoreCompany", Handler: unaryHandler(MethodScoreCompany, RiskServiceServer.ScoreCompany)},
		{MethodName: "ScoreRecord", Handler: unaryHandler(MethodScoreRecord, RiskServiceServer.ScoreRecord)},
		{MethodName: "RankCompanies", Handler: unaryHandler(MethodRankCompanies, RiskServiceServer.RankCompanies)},
		{MethodName: "GetRanking", Handler: unaryHandler(MethodGetRanking, RiskServiceServer.GetRanking)},
	},
	Streams: []grpclib.StreamDesc{},
}

// unaryHandler adapts a typed server method to a MethodDesc handler, running
// it through the server's interceptor chain when one is installed.
func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(RiskServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpclib.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RiskServiceServer), ctx, req)
		}
		info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RiskServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// RiskServiceClient is the client API for RiskService.
type RiskServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewRiskServiceClient creates a client that speaks the JSON codec over cc.
func NewRiskServiceClient(cc grpclib.ClientConnInterface) *RiskServiceClient {
	return &RiskServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpclib.ClientConnInterface, method string, req any, opts []grpclib.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RiskServiceClient) ListCompanies(ctx context.Context, opts ...grpclib.CallOption) (*dto.ListCompaniesResponse, error) {
	return invoke[dto.ListCompaniesResponse](ctx, c.cc, MethodListCompanies, &ListCompaniesRequest{}, opts)
}

func (c *RiskServiceClient) ScoreCompany(ctx context.Context, in *dto.ScoreCompanyRequest, opts ...grpclib.CallOption) (*dto.ScoreResponse, error) {
	return invoke[dto.ScoreResponse](ctx, c.cc, MethodScoreCompany, in, opts)
}

func (c *RiskServiceClient) ScoreRecord(ctx context.Context, in *dto.ScoreRecordRequest, opts ...grpclib.CallOption) (*dto.ScoreResponse, error) {
	return invoke[dto.ScoreResponse](ctx, c.cc, MethodScoreRecord, in, opts)
}

func (c *RiskServiceClient) RankCompanies(ctx context.Context, in *dto.RankRequest, opts ...grpclib.CallOption) (*dto.RankResponse, error) {
	return invoke[dto.RankResponse](ctx, c.cc, MethodRankCompanies, in, opts)
}

func (c *RiskServiceClient) GetRanking(ctx context.Context, in *dto.GetRankingRequest, opts ...grpclib.CallOption) (*dto.RankingResponse, error) {
	return invoke[dto.RankingResponse](ctx, c.cc, MethodGetRanking, in, opts)
}
