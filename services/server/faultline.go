package main

import (
	"flag"
	"fmt"

	"github.com/cuihairu/faultline/services/server/internal/config"
	"github.com/cuihairu/faultline/services/server/internal/handler"
	"github.com/cuihairu/faultline/services/server/internal/svc"

	"github.com/joho/godotenv"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"
)

var configFile = flag.String("f", "etc/server.yaml", "the config file")

func main() {
	flag.Parse()
	// a local .env fills ${VAR} references during development
	_ = godotenv.Load()

	var c config.Config
	conf.MustLoad(*configFile, &c, conf.UseEnv())

	server := rest.MustNewServer(c.RestConf)
	defer server.Stop()

	ctx, err := svc.NewServiceContext(c)
	logx.Must(err)
	defer func() {
		if err := ctx.Close(); err != nil {
			logx.Errorf("shutdown: %v", err)
		}
	}()

	httpx.SetErrorHandlerCtx(handler.ErrorHandler)
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting server at %s:%d...\n", c.Host, c.Port)
	server.Start()
}
