// Package server wraps http.Server with graceful shutdown and errgroup-friendly
// lifecycle management.
//
// Basic usage:
//
//	srv := server.New(":8080",
//		server.WithShutdownTimeout(10*time.Second),
//		server.WithLogger(log),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	if err := g.Wait(); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Configuration can also come from the environment (SERVER_* variables) via
// config.MustLoad[server.Config]() and NewFromConfig.
//
// WriteTimeout defaults to zero. Handlers that long-poll or stream events keep
// responses open far longer than a typical request, so a fixed write deadline
// would cut them off. Set one explicitly only when it exceeds the longest wait
// the server is expected to hold.
//
// Listening on ":0" picks a free port; Addr reports the bound address once
// Start has been called.
package server
