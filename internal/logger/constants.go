package logger

// Log Level String Values
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Log Format String Values
const (
	FormatJSON = "json"
	FormatText = "text"
)

const (
	DefaultServiceName = "rollwright"
	DefaultVersion     = "dev"
)

// Environment String Values
const (
	EnvironmentDev  = "dev"
	EnvironmentProd = "prod"
)

// Log Attribute Keys
const (
	AttrService     = "service"
	AttrVersion     = "version"
	AttrEnvironment = "environment"
	AttrRequestID   = "request_id"
)
