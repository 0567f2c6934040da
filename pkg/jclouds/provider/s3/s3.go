// Package s3 provides the S3 provider: a builder set that turns resolved
// "s3.*" configuration into an aws-sdk-go-v2 client context. Works against
// AWS and S3-compatible services (MinIO etc.) via the endpoint setting.
package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mcsurly/jclouds/pkg/jclouds"
)

// Name is the provider name the builder set registers under.
const Name = "s3"

// Registered capability type names, referenced from configuration via
// "s3.sync" / "s3.async".
const (
	SyncTypeName  = "s3.Client"
	AsyncTypeName = "s3.Uploader"
)

// Provider-specific settings consumed from the finalized properties, in
// addition to the standard endpoint/identity/credential/apiversion keys.
const (
	SettingRegion    = "region"
	SettingBucket    = "bucket"
	SettingPathStyle = "pathstyle"
	SettingVerify    = "verify"
)

// DefaultRegion applies when "s3.region" is not configured.
const DefaultRegion = "us-east-1"

// Register registers the s3 builder set and capability types on r.
func Register(r *jclouds.Registry) {
	r.RegisterType(jclouds.TypeOf[*awss3.Client](SyncTypeName))
	r.RegisterType(jclouds.TypeOf[*manager.Uploader](AsyncTypeName))
	r.RegisterBuilderSet(Name, jclouds.BuilderSet{
		PropertiesBuilder: jclouds.NewPropertiesBuilder,
		ContextBuilder:    newContextBuilder,
	})
}

// Context is the s3 provider context: an SDK client plus, when the async
// capability is requested, an upload manager sharing it.
type Context struct {
	id       string
	endpoint string
	identity string
	bucket   string
	client   *awss3.Client
	uploader *manager.Uploader
}

// ID returns the identifier assigned at build time.
func (c *Context) ID() string { return c.id }

// Provider returns "s3".
func (c *Context) Provider() string { return Name }

// Endpoint returns the configured endpoint, or "" for the AWS default.
func (c *Context) Endpoint() string { return c.endpoint }

// Identity returns the access key id the context authenticates as, if any.
func (c *Context) Identity() string { return c.identity }

// Bucket returns the configured bucket, if any.
func (c *Context) Bucket() string { return c.bucket }

// Client returns the typed SDK client.
func (c *Context) Client() *awss3.Client { return c.client }

// Uploader returns the upload manager, or nil when the async capability
// was not requested.
func (c *Context) Uploader() *manager.Uploader { return c.uploader }

// SyncAPI returns the SDK client as the synchronous capability.
func (c *Context) SyncAPI() any { return c.client }

// AsyncAPI returns the upload manager as the asynchronous capability.
func (c *Context) AsyncAPI() any {
	if c.uploader == nil {
		return nil
	}
	return c.uploader
}

// Close is a no-op; the SDK client holds no resources needing release.
func (c *Context) Close() error { return nil }

type contextBuilder struct {
	sync    jclouds.TypeRef
	async   jclouds.TypeRef
	props   jclouds.Properties
	modules []jclouds.Module
}

func newContextBuilder(sync, async jclouds.TypeRef, props jclouds.Properties) (jclouds.ContextBuilder, error) {
	return &contextBuilder{sync: sync, async: async, props: props}, nil
}

func (b *contextBuilder) WithModules(modules ...jclouds.Module) jclouds.ContextBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *contextBuilder) BuildContext(ctx context.Context) (jclouds.Context, error) {
	endpoint, _ := b.props.ProviderSetting(Name, jclouds.SettingEndpoint)
	identity, _ := b.props.ProviderSetting(Name, jclouds.SettingIdentity)
	credential, _ := b.props.ProviderSetting(Name, jclouds.SettingCredential)
	region, ok := b.props.ProviderSetting(Name, SettingRegion)
	if !ok || region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if identity != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(identity, credential, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &jclouds.InstantiationError{Provider: Name, Err: fmt.Errorf("load AWS config: %w", err)}
	}

	var clientOpts []func(*awss3.Options)
	if endpoint != "" {
		pathStyle, _ := b.props.ProviderSetting(Name, SettingPathStyle)
		usePathStyle, _ := strconv.ParseBool(pathStyle)
		clientOpts = append(clientOpts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = usePathStyle
		})
	}
	client := awss3.NewFromConfig(awsCfg, clientOpts...)

	if !b.sync.IsZero() && !b.sync.Assignable(client) {
		return nil, &jclouds.InstantiationError{
			Provider: Name,
			Err:      errors.New("client does not satisfy capability " + b.sync.Name),
		}
	}

	c := &Context{
		id:       uuid.NewString(),
		endpoint: endpoint,
		identity: identity,
		client:   client,
	}
	c.bucket, _ = b.props.ProviderSetting(Name, SettingBucket)

	if !b.async.IsZero() {
		uploader := manager.NewUploader(client)
		if !b.async.Assignable(uploader) {
			return nil, &jclouds.InstantiationError{
				Provider: Name,
				Err:      errors.New("uploader does not satisfy capability " + b.async.Name),
			}
		}
		c.uploader = uploader
	}

	if verify, _ := b.props.ProviderSetting(Name, SettingVerify); verify != "" {
		enabled, _ := strconv.ParseBool(verify)
		if enabled {
			if err := c.verifyAccess(ctx); err != nil {
				return nil, err
			}
		}
	}

	for _, m := range b.modules {
		if err := m.Configure(c); err != nil {
			return nil, &jclouds.InstantiationError{Provider: Name, Err: err}
		}
	}
	return c, nil
}

// verifyAccess probes the configured bucket so credential problems surface
// at build time instead of on first use.
func (c *Context) verifyAccess(ctx context.Context) error {
	if c.bucket == "" {
		return &jclouds.ConfigurationError{
			Setting: jclouds.PropertyKey(Name, SettingBucket),
			Err:     errors.New("verify requires a bucket"),
		}
	}
	_, err := c.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return mapVerifyError(err)
	}
	return nil
}
