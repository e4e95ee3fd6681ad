package logging

// Component constants for structured logging
const (
	ComponentStartup  = "startup"
	ComponentShutdown = "shutdown"
	ComponentRender   = "render"
	ComponentAPI      = "api"
	ComponentDatabase = "database"
	ComponentStorage  = "storage"
	ComponentCleanup  = "cleanup"
	ComponentPalette  = "palette"
	ComponentPoller   = "poller"
	ComponentCLI      = "cli"
)
