package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/induwarapathirana/cv-creator-sub000/internal/api/handler"
	"github.com/induwarapathirana/cv-creator-sub000/internal/api/router"
	appconfig "github.com/induwarapathirana/cv-creator-sub000/internal/config"
	"github.com/induwarapathirana/cv-creator-sub000/internal/logger"
	"github.com/induwarapathirana/cv-creator-sub000/internal/outbox"
	"github.com/induwarapathirana/cv-creator-sub000/internal/processor"
	"github.com/induwarapathirana/cv-creator-sub000/internal/ratelimit"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage"
	"github.com/induwarapathirana/cv-creator-sub000/internal/tracing"
)

var (
	version     = "1.0.0"         //nolint:gochecknoglobals
	serviceName = "resume-import" //nolint:gochecknoglobals
)

func main() {
	var configPath string
	var writeSample string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，留空时按默认位置查找")
	pflag.StringVar(&writeSample, "write-sample-config", "", "生成示例配置文件后退出")
	pflag.Parse()

	if writeSample != "" {
		if err := appconfig.CreateSampleConfig(writeSample); err != nil {
			os.Stderr.WriteString("生成示例配置失败: " + err.Error() + "\n")
			os.Exit(1)
		}
		return
	}

	cfg, err := appconfig.LoadConfig(configPath)
	if err != nil {
		os.Stderr.WriteString("加载配置失败: " + err.Error() + "\n")
		os.Exit(1)
	}

	initLogger(cfg.Logger)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("配置校验失败")
	}
	logger.Info().Str("version", version).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serviceNameForTrace := cfg.Tracing.ServiceName
	if serviceNameForTrace == "" {
		serviceNameForTrace = serviceName
	}
	shutdownTracing, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: serviceNameForTrace,
		Version:     version,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	st, err := storage.NewStorage(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer st.Close(logger.Logger)

	svc, err := processor.NewImportServiceFromConfig(ctx, cfg, st, logger.Logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化导入服务失败")
	}
	logger.Info().Str("parser_version", svc.ParserVersion()).Bool("async", svc.AsyncEnabled()).Msg("导入服务初始化成功")

	var background []<-chan struct{}
	if st.MySQL != nil && st.RabbitMQ != nil {
		relay := outbox.NewMessageRelay(st.MySQL.DB(), st.RabbitMQ, logger.Component("outbox-relay"),
			outbox.WithPollingInterval(appconfig.GetDuration(cfg.RabbitMQ.OutboxPollInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.RabbitMQ.OutboxBatchSize),
		)
		background = append(background, relay.Start(ctx))
		logger.Info().Msg("消息中继服务已启动")
	}
	if svc.AsyncEnabled() {
		done, err := svc.StartParseConsumer(ctx, cfg.RabbitMQ.ConsumerWorkers)
		if err != nil {
			logger.Fatal().Err(err).Msg("启动解析消费者失败")
		}
		background = append(background, done)
	}

	serverOpts := []config.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.MaxUploadBytes()) + 1<<20),
	}
	routeOpts := router.Options{
		APIKeys:    cfg.Auth.APIKeys,
		AuthHeader: cfg.Auth.Header,
		AccessLog:  cfg.Server.EnableAccessLogging,
		Logger:     logger.Logger,
	}
	if cfg.Server.RateLimitQPM > 0 {
		routeOpts.RateLimiter = ratelimit.NewTokenBucket(cfg.Server.RateLimitQPM, cfg.Server.RateLimitBurst)
	}
	if cfg.Tracing.Enabled {
		tracerOpt, tracerCfg := hertztracing.NewServerTracer()
		serverOpts = append(serverOpts, tracerOpt)
		routeOpts.Tracing = tracerCfg
	}

	h := server.New(serverOpts...)
	importHandler := handler.NewResumeImportHandler(svc, cfg.MaxUploadBytes(), logger.Logger)
	router.RegisterRoutes(h, importHandler, routeOpts)
	if len(cfg.Auth.APIKeys) == 0 {
		logger.Warn().Msg("未配置 API Key，导入接口不做鉴权")
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务器启动中")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownTimeout := appconfig.GetDuration(cfg.Server.ShutdownTimeout, 5*time.Second)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}

	// 先停止中继和消费者，再关闭底层连接
	cancel()
	for _, done := range background {
		select {
		case <-done:
		case <-shutdownCtx.Done():
			logger.Warn().Msg("等待后台任务退出超时")
		}
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("关闭链路追踪失败")
	}
	logger.Info().Msg("优雅退出完成")
}

func initLogger(cfg appconfig.LoggerConfig) {
	logger.Init(logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
	})

	glog.SetLogger(hertzadapter.From(logger.Logger))
	switch zerolog.GlobalLevel() {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		glog.SetLevel(glog.LevelDebug)
	case zerolog.WarnLevel:
		glog.SetLevel(glog.LevelWarn)
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		glog.SetLevel(glog.LevelError)
	default:
		glog.SetLevel(glog.LevelInfo)
	}
}
