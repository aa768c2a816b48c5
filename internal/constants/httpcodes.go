// Package constants provides shared constant values used throughout the application.
//
// The httpcodes.go file holds the status codes, envelope error codes and
// headers of the TaskHub API.
package constants

// Status codes the handlers and response helpers write.
const (
	StatusNoContent           = 204
	StatusBadRequest          = 400
	StatusUnauthorized        = 401
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusTooManyRequests     = 429
	StatusInternalServerError = 500
)

// Envelope values. The Code* strings appear in error.code of a failed
// response and are what clients branch on.
const (
	ResponseSuccess = true
	ResponseFailure = false

	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeInternalError     = "internal_error"
	CodeValidationError   = "validation_error"
	CodeDuplicateResource = "duplicate_resource"

	// CodeInvalidCredentials rejects a login with a wrong email or password.
	CodeInvalidCredentials = "invalid_credentials"

	// CodeTokenExpired covers both session tokens and reset tokens past expiry.
	CodeTokenExpired = "token_expired"
	CodeTokenInvalid = "token_invalid"

	// CodeTokenUsed rejects a second redemption of a reset token.
	CodeTokenUsed = "token_used"

	CodeRateLimited = "rate_limited"
)

// Header names.
const (
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderCacheControl  = "Cache-Control"
	HeaderRetryAfter    = "Retry-After"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	HeaderXContentTypeOptions   = "X-Content-Type-Options"
	HeaderXFrameOptions         = "X-Frame-Options"
	HeaderXXSSProtection        = "X-XSS-Protection"
	HeaderReferrerPolicy        = "Referrer-Policy"
	HeaderContentSecurityPolicy = "Content-Security-Policy"
)

const ContentTypeJSON = "application/json"

// Values the security middleware sets on every response.
const (
	FrameOptionsDeny           = "DENY"
	XSSProtectionModeBlock     = "1; mode=block"
	ContentTypeOptionsNoSniff  = "nosniff"
	ReferrerPolicyStrictOrigin = "strict-origin-when-cross-origin"
	CSPDefaultSrc              = "default-src 'self'"

	// CacheControlNoStore keeps reset tokens and session data out of caches.
	CacheControlNoStore = "no-cache, no-store, must-revalidate"
)
