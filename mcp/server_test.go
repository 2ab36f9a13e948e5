package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"
	"github.com/incidentkb/rag-agent/appconfig"
	"github.com/incidentkb/rag-agent/kb"
)

// mockRetrieve implements kb.RetrieveAPI for testing
type mockRetrieve struct {
	out   *bedrockagentruntime.RetrieveOutput
	err   error
	calls int
}

func (m *mockRetrieve) Retrieve(ctx context.Context, in *bedrockagentruntime.RetrieveInput, _ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error) {
	m.calls++
	return m.out, m.err
}

func testConfig() *appconfig.AppConfig {
	return &appconfig.AppConfig{
		KnowledgeBaseID: "KB123",
		Region:          "us-east-1",
	}
}

func newSearchHandler(retrieve *mockRetrieve, factoryErr error, clientCalls *int) func(context.Context, SearchInput) (SearchOutput, error) {
	handler := searchHandler(testConfig(), func(ctx context.Context) (*kb.Clients, error) {
		if clientCalls != nil {
			*clientCalls++
		}
		if factoryErr != nil {
			return nil, factoryErr
		}
		return &kb.Clients{AgentRuntime: retrieve}, nil
	})
	return func(ctx context.Context, in SearchInput) (SearchOutput, error) {
		_, out, err := handler(ctx, nil, in)
		return out, err
	}
}

func TestSearchHandler_RejectsEmptyQuery(t *testing.T) {
	clientCalls := 0
	handler := newSearchHandler(&mockRetrieve{}, nil, &clientCalls)

	for _, query := range []string{"", "   "} {
		_, err := handler(context.Background(), SearchInput{Query: query})
		if err == nil {
			t.Errorf("query %q: expected validation error", query)
		}
	}
	if clientCalls != 0 {
		t.Errorf("backend clients must not be constructed for rejected queries")
	}
}

func TestSearchHandler_ReturnsStructuredResults(t *testing.T) {
	retrieve := &mockRetrieve{
		out: &bedrockagentruntime.RetrieveOutput{
			RetrievalResults: []agenttypes.KnowledgeBaseRetrievalResult{
				{
					Content: &agenttypes.RetrievalResultContent{
						Text: aws.String("2022/12/2 4:00,晴れ,西東京市柳沢1-10,35.726,139.55391,西東京市での交通事故"),
					},
					Score: aws.Float64(0.88),
					Location: &agenttypes.RetrievalResultLocation{
						S3Location: &agenttypes.RetrievalResultS3Location{Uri: aws.String("s3://incidents/a.csv")},
					},
				},
			},
		},
	}
	handler := newSearchHandler(retrieve, nil, nil)

	out, err := handler(context.Background(), SearchInput{Query: "柳沢の事故"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Message, "1件") {
		t.Errorf("message = %q, want result count mentioned", out.Message)
	}
	if out.Count != 1 || len(out.Results) != 1 {
		t.Fatalf("count = %d, results = %d, want 1/1", out.Count, len(out.Results))
	}
	if out.Results[0].Title != "西東京市での交通事故" || !out.Results[0].HasCoordinates() {
		t.Errorf("extraction not applied: %+v", out.Results[0])
	}
}

func TestSearchHandler_EnvelopeErrorBecomesToolError(t *testing.T) {
	retrieve := &mockRetrieve{
		err: &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"},
	}
	handler := newSearchHandler(retrieve, nil, nil)

	_, err := handler(context.Background(), SearchInput{Query: "柳沢の事故"})
	if err == nil {
		t.Fatal("expected tool error for envelope error")
	}
	if !strings.Contains(err.Error(), "AccessDeniedException") {
		t.Errorf("error must carry the envelope code: %v", err)
	}
}

func TestSearchHandler_ClientFactoryError(t *testing.T) {
	handler := newSearchHandler(nil, errors.New("no credentials"), nil)

	_, err := handler(context.Background(), SearchInput{Query: "柳沢の事故"})
	if err == nil || !strings.Contains(err.Error(), "no credentials") {
		t.Errorf("factory error must surface to the client: %v", err)
	}
}
