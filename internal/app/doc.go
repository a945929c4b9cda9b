// Package app wires the dashboard server together and manages its
// lifecycle.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and the metrics providers
//	3. Create the dataset loader and the snapshot store
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure and start the HTTP server
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM to ensure active requests complete,
// WebSocket connections close cleanly, and final metrics are flushed.
// Initialization errors are returned to the caller; the package never
// calls os.Exit() itself.
package app
