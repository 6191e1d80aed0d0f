// Package app wires the license key server together: configuration,
// logging, telemetry, the key pair, services, HTTP routes and the server
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, an optional YAML file and the environment
//  2. Initialize logging and OpenTelemetry
//  3. Load the key pair and build the license manager
//  4. Create services, handlers and the chi router
//  5. Serve until SIGINT or SIGTERM, then shut down gracefully
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// A server missing one key half still starts; the affected endpoints answer
// with a 500 problem and /api/health/ready reports the gap. Key material
// that cannot be parsed is a startup error.
package app
