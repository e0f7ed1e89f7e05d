package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderUserAgent     = "User-Agent"

	// Content Types
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"

	// Context keys
	ContextKeyIdentityID  = "identity_id"
	ContextKeyAnonymousID = "anonymous_id"
	ContextKeyClaims      = "claims"
	ContextKeyRequestID   = "request_id"

	// Database table names
	TableIdentities        = "identities"
	TableEntitlementStates = "entitlement_states"
	TableInviteRecords     = "invite_records"
	TableIdentityBindings  = "identity_bindings"
	TableSecureRecords     = "secure_records"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
	ErrMsgValidationFailed    = "Validation failed"
	ErrMsgConflict            = "Resource already exists"
)
