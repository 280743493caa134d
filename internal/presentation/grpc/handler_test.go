package grpc_test

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/dataset"
	riskgrpc "github.com/nader8687/company-risk-score-calculator/internal/presentation/grpc"
	"github.com/nader8687/company-risk-score-calculator/pkg/auth"
	"github.com/nader8687/company-risk-score-calculator/pkg/observability"
)

type testServer struct {
	client *riskgrpc.RiskServiceClient
	conn   *grpclib.ClientConn
}

func startServer(t *testing.T, opts riskgrpc.ServerOptions) testServer {
	t.Helper()

	source := dataset.New([]model.CompanyRecord{
		{BusinessName: "Acme Trading", Status: model.StringPtr("Active"), WPS: model.StringPtr("Yes")},
		{BusinessName: "Beta Foods", Status: model.StringPtr("Inactive")},
	})
	agg := service.NewRiskAggregator(nil)
	logger := observability.DiscardLogger()

	handler := riskgrpc.NewRiskServiceHandler(
		usecase.NewScoreCompany(source, agg, nil),
		usecase.NewScoreRecord(agg, nil),
		usecase.NewListCompanies(source),
		usecase.NewRankCompanies(source, agg, usecase.RankCompaniesOptions{}, logger),
		usecase.NewGetRanking(nil),
		logger,
	)
	srv, err := riskgrpc.NewServer(handler, "bufnet", opts, logger)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return testServer{client: riskgrpc.NewRiskServiceClient(conn), conn: conn}
}

func TestListCompanies(t *testing.T) {
	s := startServer(t, riskgrpc.ServerOptions{})

	resp, err := s.client.ListCompanies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Trading", "Beta Foods"}, resp.Companies)
	assert.Equal(t, []string{"Yes"}, resp.Options["wps"])
}

func TestScoreCompany(t *testing.T) {
	s := startServer(t, riskgrpc.ServerOptions{})
	weights := valueobject.DefaultWeights().ToMap()

	resp, err := s.client.ScoreCompany(context.Background(), &dto.ScoreCompanyRequest{
		BusinessName: "Acme Trading",
		Weights:      weights,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Trading", resp.BusinessName)
	assert.NotEmpty(t, resp.RulesVersion)

	tests := []struct {
		name string
		req  *dto.ScoreCompanyRequest
		code codes.Code
	}{
		{"unknown company", &dto.ScoreCompanyRequest{BusinessName: "Nobody", Weights: weights}, codes.NotFound},
		{"missing weights", &dto.ScoreCompanyRequest{BusinessName: "Acme Trading"}, codes.InvalidArgument},
		{"weight out of range", &dto.ScoreCompanyRequest{
			BusinessName: "Acme Trading",
			Weights:      map[string]float64{"wps": 2},
		}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.client.ScoreCompany(context.Background(), tt.req)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestScoreRecord(t *testing.T) {
	s := startServer(t, riskgrpc.ServerOptions{})

	resp, err := s.client.ScoreRecord(context.Background(), &dto.ScoreRecordRequest{
		Weights:  valueobject.DefaultWeights().ToMap(),
		Record:   dto.CompanyRecordInput{BusinessName: "Walk-in LLC"},
		Detailed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Walk-in LLC", resp.BusinessName)
	assert.Len(t, resp.Scores, 25)
}

func TestRankAndGetRanking_WithoutRepository(t *testing.T) {
	s := startServer(t, riskgrpc.ServerOptions{})

	resp, err := s.client.RankCompanies(context.Background(), &dto.RankRequest{Top: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Companies)
	require.Len(t, resp.Top, 1)
	assert.Equal(t, 1, resp.Top[0].Rank)
	assert.False(t, resp.Persisted)

	_, err = s.client.GetRanking(context.Background(), &dto.GetRankingRequest{RunID: uuid.New()})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestAuth(t *testing.T) {
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "risk-test"})
	require.NoError(t, err)
	s := startServer(t, riskgrpc.ServerOptions{JWT: jwtSvc})

	withToken := func(roles ...string) context.Context {
		token, err := jwtSvc.GenerateToken("tester", roles)
		require.NoError(t, err)
		return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
	}

	_, err = s.client.ListCompanies(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.client.ListCompanies(withToken(auth.RoleAnalyst))
	assert.NoError(t, err)

	_, err = s.client.RankCompanies(withToken(auth.RoleAnalyst), &dto.RankRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = s.client.RankCompanies(withToken(auth.RoleOperator), &dto.RankRequest{})
	assert.NoError(t, err)

	health, err := healthpb.NewHealthClient(s.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: riskgrpc.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.Status)
}
