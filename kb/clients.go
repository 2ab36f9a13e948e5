package kb

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Backend client tuning. Retries and backoff are delegated entirely to the
// AWS client; no retry logic exists locally.
const (
	maxRetryAttempts = 2
	connectTimeout   = 30 * time.Second
	requestTimeout   = 120 * time.Second
)

// RetrieveAPI is the slice of the Bedrock agent-runtime client the adapter
// needs.
type RetrieveAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// InvokeModelAPI is the slice of the Bedrock runtime client the composer
// needs.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Clients holds the two Bedrock client handles scoped to a single request.
type Clients struct {
	AgentRuntime RetrieveAPI
	Runtime      InvokeModelAPI
}

// NewClients constructs fresh Bedrock clients. Construction acquires no
// shared state; handles live for one request.
func NewClients(ctx context.Context, region string) (*Clients, error) {
	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(maxRetryAttempts),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "load aws config: %v", err)
	}

	return &Clients{
		AgentRuntime: bedrockagentruntime.NewFromConfig(cfg),
		Runtime:      bedrockruntime.NewFromConfig(cfg),
	}, nil
}
