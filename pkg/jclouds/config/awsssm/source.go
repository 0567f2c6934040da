// Package awsssm provides a configuration overlay backed by AWS Systems
// Manager Parameter Store.
//
// Parameters live under a common path prefix, one per setting:
//
//	/jclouds/s3/endpoint   -> s3.endpoint
//	/jclouds/s3/credential -> s3.credential (SecureString, decrypted)
//
// Load walks the prefix recursively with decryption enabled and follows
// pagination tokens until the store is exhausted.
package awsssm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Client is the subset of the SSM SDK client the source uses. The
// interface exists so tests can inject a mock.
type Client interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// Option is a functional option for configuring a Source
type Option func(*Source)

// WithClient injects the SSM client. Without it a client is created
// lazily from the default AWS config chain and the configured region.
func WithClient(client Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithRegion sets the AWS region used when the client is created lazily.
func WithRegion(region string) Option {
	return func(s *Source) {
		s.region = region
	}
}

// Source loads provider configuration from SSM parameters under a path
// prefix. It satisfies the config.Source interface.
type Source struct {
	prefix string
	region string
	client Client
}

// NewSource creates a Source reading parameters under prefix, e.g.
// "/jclouds".
func NewSource(prefix string, opts ...Option) *Source {
	s := &Source{
		prefix: strings.TrimSuffix(prefix, "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if s.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(s.region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("config: load AWS config for SSM: %w", err)
	}
	s.client = ssm.NewFromConfig(cfg)
	return nil
}

// Load retrieves every parameter under the prefix, decrypted, following
// pagination until the listing is complete. Parameter paths relative to
// the prefix map to dotted keys: "<prefix>/s3/endpoint" -> "s3.endpoint".
func (s *Source) Load(ctx context.Context) (map[string]string, error) {
	if err := s.ensureClient(ctx); err != nil {
		return nil, err
	}

	values := make(map[string]string)
	var nextToken *string
	for {
		out, err := s.client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:           aws.String(s.prefix + "/"),
			Recursive:      aws.Bool(true),
			WithDecryption: aws.Bool(true),
			NextToken:      nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("config: SSM GetParametersByPath %s: %w", s.prefix, err)
		}
		for _, p := range out.Parameters {
			if p.Name == nil || p.Value == nil {
				continue
			}
			key := s.keyFor(*p.Name)
			if key == "" {
				continue
			}
			values[key] = *p.Value
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return values, nil
}

// keyFor converts a full parameter name into the flat property key, or ""
// when the name does not sit under the prefix.
func (s *Source) keyFor(name string) string {
	rel := strings.TrimPrefix(name, s.prefix+"/")
	if rel == name || rel == "" {
		return ""
	}
	return strings.ReplaceAll(rel, "/", ".")
}
