// Package app wires the HTTP service: telemetry, services, router and
// server lifecycle.
//
// Configuration is loaded by the caller and passed in, so the package holds
// no global settings:
//
//	cfg, err := config.Load(path)
//	logger, err := infrastructure.InitializeLogger(cfg.Logging)
//	application, err := app.NewApplication(cfg, logger)
//	err = application.Run(ctx)
//
// Run returns after SIGINT or SIGTERM once in-flight requests have finished
// or the shutdown timeout has passed. It never calls os.Exit.
package app
