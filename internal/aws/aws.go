package aws

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"
)

const kubernetesServiceAccountToken = "/var/run/secrets/kubernetes.io/serviceaccount/token"

// LoadAWSConfig loads the default AWS configuration. Outside Kubernetes the
// shared config profile from AWS_PROFILE (or "default") is used; inside, the
// pod's service account credentials are picked up by the default chain.
func LoadAWSConfig(ctx context.Context, regionOverride string) (aws.Config, error) {
	var options []func(*config.LoadOptions) error

	if !isInKubernetes() {
		options = append(options, config.WithSharedConfigProfile(getProfile()))
	}

	if regionOverride != "" {
		options = append(options, config.WithRegion(regionOverride))
	}

	cfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

func isInKubernetes() bool {
	_, err := os.Stat(kubernetesServiceAccountToken)
	return err == nil
}

func getProfile() string {
	if profile := os.Getenv("AWS_PROFILE"); profile != "" {
		return profile
	}
	return "default"
}

// ICallerIdentityClient is satisfied by *sts.Client
type ICallerIdentityClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func GetCallerIdentity(ctx context.Context, cfg aws.Config) (*sts.GetCallerIdentityOutput, error) {
	return getCallerIdentity(ctx, sts.NewFromConfig(cfg))
}

func getCallerIdentity(ctx context.Context, client ICallerIdentityClient) (*sts.GetCallerIdentityOutput, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}
	return out, nil
}

// LogCallerIdentity logs which AWS principal KMS requests will run as. A
// failure is returned so callers can stop before the first signing request.
func LogCallerIdentity(ctx context.Context, cfg aws.Config, logger *zap.Logger) error {
	return logCallerIdentity(ctx, sts.NewFromConfig(cfg), logger)
}

func logCallerIdentity(ctx context.Context, client ICallerIdentityClient, logger *zap.Logger) error {
	identity, err := getCallerIdentity(ctx, client)
	if err != nil {
		return err
	}
	logger.Sugar().Infow("Using AWS identity",
		"account", aws.ToString(identity.Account),
		"arn", aws.ToString(identity.Arn),
	)
	return nil
}
