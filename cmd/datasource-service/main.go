package main

import (
	"context"
	"flag"
	"os"
	"time"

	"datacuration/pkg/observability"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	Name     = "datasource-service"
	Version  = "v1.0.0"
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/datasource-service.yaml", "config path, eg: -conf config.yaml")
}

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
}

func main() {
	flag.Parse()

	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
		"trace.id", tracing.TraceID(),
		"span.id", tracing.SpanID(),
	)

	// 环境变量 DATASOURCE_* 用于替换配置文件中的 ${...} 占位符
	c := config.New(
		config.WithSource(
			env.NewSource("DATASOURCE_"),
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var cfg Config
	if err := c.Scan(&cfg); err != nil {
		panic(err)
	}

	helper := log.NewHelper(logger)

	tracingCfg := cfg.Observability.Tracing
	if tracingCfg.ServiceName == "" {
		tracingCfg.ServiceName = Name
	}
	if tracingCfg.ServiceVersion == "" {
		tracingCfg.ServiceVersion = Version
	}
	shutdownTracing, err := observability.InitTracing(context.Background(), tracingCfg)
	if err != nil {
		helper.Warnf("failed to init tracing, continuing without it: %v", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(ctx)
		}()
	}

	app, cleanup, err := wireApp(&cfg, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	helper.Infow("msg", "service starting", "name", Name, "version", Version, "http", cfg.Server.HTTP.Addr)

	if err := app.Run(); err != nil {
		helper.Errorf("failed to run app: %v", err)
		panic(err)
	}
}
