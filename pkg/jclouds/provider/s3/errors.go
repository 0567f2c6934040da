package s3

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/mcsurly/jclouds/pkg/jclouds"
)

// authErrorCodes are the S3 error codes that mean the credentials, not the
// request, were rejected.
var authErrorCodes = map[string]bool{
	"AccessDenied":            true,
	"InvalidAccessKeyId":      true,
	"SignatureDoesNotMatch":   true,
	"ExpiredToken":            true,
	"InvalidSecurity":         true,
	"CredentialsNotSupported": true,
}

// mapVerifyError classifies a HeadBucket failure: credential rejections
// become AuthorizationError so the factory surfaces them past construction
// wrappers, everything else is an InstantiationError.
func mapVerifyError(err error) error {
	if isAuthorizationFailure(err) {
		return jclouds.NewAuthorizationError(Name, err)
	}
	return &jclouds.InstantiationError{Provider: Name, Err: fmt.Errorf("verify bucket access: %w", err)}
}

func isAuthorizationFailure(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && authErrorCodes[apiErr.ErrorCode()] {
		return true
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	}
	return false
}
