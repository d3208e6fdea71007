package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/epavlenko/taskboard/internal/config"
	"github.com/epavlenko/taskboard/internal/delivery/http/v1"
	"github.com/epavlenko/taskboard/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(v1.RequestID())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	userService := services.NewUserService(globalLogger, globalStore.Users(), globalStore.Tasks())
	taskService := services.NewTaskService(globalLogger, globalStore.Users(), globalStore.Tasks())
	v1Handler := v1.New(globalLogger, userService, taskService)

	router = router.Group("/api/v1")

	usersRouter := router.Group("/users")
	usersRouter.GET("", v1Handler.HandleListUsers)
	usersRouter.POST("", v1Handler.HandleCreateUser)
	usersRouter.GET("/:id", v1Handler.HandleGetUser)
	usersRouter.PUT("/:id", v1Handler.HandleReplaceUser)
	usersRouter.DELETE("/:id", v1Handler.HandleDeleteUser)

	tasksRouter := router.Group("/tasks")
	tasksRouter.GET("", v1Handler.HandleListTasks)
	tasksRouter.POST("", v1Handler.HandleCreateTask)
	tasksRouter.GET("/:id", v1Handler.HandleGetTask)
	tasksRouter.PUT("/:id", v1Handler.HandleReplaceTask)
	tasksRouter.DELETE("/:id", v1Handler.HandleDeleteTask)
}
