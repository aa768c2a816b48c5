package constants

const (
	APIBasePath = "/api"
	HealthPath  = "/health"
	VersionPath = "/version"
)

const (
	AuthRegisterPath = "/api/auth/register"
	AuthLoginPath    = "/api/auth/login"
	AuthLogoutPath   = "/api/auth/logout"
	AuthMePath       = "/api/auth/me"
)

const (
	ForgotPath       = "/api/forgot"
	ForgotResendPath = "/api/forgot/resend"
	ResetPath        = "/api/reset"
	ResetVerifyPath  = "/api/reset/verify"
)

const (
	UserUpdatePath = "/api/user/update"
	ContactPath    = "/api/contact"
)

const (
	ProjectsBasePath  = "/api/projects"
	ProjectDetailPath = "/api/projects/{id}"
	TasksBasePath     = "/api/projects/{id}/tasks"
	TaskDetailPath    = "/api/projects/{id}/tasks/{taskID}"
)

const (
	ParamID     = "id"
	ParamTaskID = "taskID"
)

const (
	QueryParamPage     = "page"
	QueryParamPageSize = "page_size"
)
