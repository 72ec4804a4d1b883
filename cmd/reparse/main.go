package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	appconfig "github.com/induwarapathirana/cv-creator-sub000/internal/config"
	"github.com/induwarapathirana/cv-creator-sub000/internal/logger"
	"github.com/induwarapathirana/cv-creator-sub000/internal/processor"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage"
)

func main() {
	var (
		configPath string
		opts       processor.ReparseOptions
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.IntVar(&opts.Limit, "limit", 0, "最多处理的记录数，0 表示不限制")
	pflag.IntVar(&opts.Workers, "workers", 5, "并发数")
	pflag.BoolVar(&opts.DryRun, "dry-run", false, "只统计待处理记录")
	pflag.Parse()

	cfg, err := appconfig.LoadConfig(configPath)
	if err != nil {
		os.Stderr.WriteString("加载配置失败: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("配置校验失败")
	}
	if !cfg.MySQL.Enabled || !cfg.MinIO.Enabled {
		logger.Fatal().Msg("重新解析需要启用 mysql 和 minio")
	}

	if err := run(cfg, opts); err != nil {
		logger.Error().Err(err).Msg("重新解析中断")
		os.Exit(1)
	}
}

func run(cfg *appconfig.Config, opts processor.ReparseOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := storage.NewStorage(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer st.Close(logger.Logger)
	if st.MySQL == nil || st.MinIO == nil {
		return errors.New("MySQL 或 MinIO 连接失败")
	}

	svc, err := processor.NewImportServiceFromConfig(ctx, cfg, st, logger.Logger)
	if err != nil {
		return err
	}

	logger.Info().Str("parser_version", svc.ParserVersion()).Int("limit", opts.Limit).Bool("dry_run", opts.DryRun).Msg("开始重新解析")
	summary, err := svc.ReparseStale(ctx, opts)
	if summary != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(summary)
	}
	return err
}
