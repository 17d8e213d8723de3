// Package bootstrap runs the lifecycle of a service built from components.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(db)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    // infrastructure is started here; wire handlers and register the server
//	    return a.RegisterComponent(server.NewComponent(srv))
//	})
//	err = app.Run(ctx)
//
// Run starts registered components, runs configure callbacks, starts the
// components those callbacks registered, then blocks until SIGINT, SIGTERM
// or context cancellation and shuts everything down in reverse order.
package bootstrap
