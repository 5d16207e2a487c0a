package logging

// These constants are used to identify the various services that may do some logging
const (
	// CLI_SERVICE is the constant used to identify the cmd package
	CLI_SERVICE = "cli"
	// DRIVER_SERVICE is the constant used to identify the driver package
	DRIVER_SERVICE = "driver"
	// EXPLORER_SERVICE is the constant used to identify the explorer package
	EXPLORER_SERVICE = "explorer"
	// COMPILATION_SERVICE is the constant used to identify the compilation package
	COMPILATION_SERVICE = "compilation"
	// WORKSPACE_SERVICE is the constant used to identify the workspace package
	WORKSPACE_SERVICE = "workspace"
)
