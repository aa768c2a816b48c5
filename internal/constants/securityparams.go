package constants

type contextKey string

// Context keys set by the auth middleware.
const (
	UserIDContextKey    contextKey = "user_id"
	EmailContextKey     contextKey = "email"
	PositionContextKey  contextKey = "position"
	RequestIDContextKey contextKey = "request_id"
)

const (
	TokenTypeAccess = "access"
)

const (
	MinRegisterPasswordLength = 6
	MaxNameLength             = 100
	MaxEmailLength            = 255
	MaxMessageLength          = 5000
)

// Positions a user can hold. Admins may update other users.
const (
	PositionAdmin     = "admin"
	PositionManager   = "manager"
	PositionDeveloper = "developer"
	PositionDesigner  = "designer"
	PositionMember    = "member"
)

// Task statuses.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

const (
	AuthTokenCookie = "auth_token"
)

// Rate limiter key prefixes.
const (
	LimiterScopeContact = "contact"
	LimiterScopeForgot  = "forgot"
)
