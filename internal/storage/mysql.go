package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/induwarapathirana/cv-creator-sub000/internal/config"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
	"github.com/induwarapathirana/cv-creator-sub000/internal/tracing"
)

var mysqlTracer = otel.Tracer("resume-import/storage/mysql")

type spanContextKey struct{}

// GormTracingPlugin 为 GORM 的增删改查注册 OpenTelemetry span
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// NewGormTracingPlugin 创建追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		disableErrSkip: true,
	}
}

// WithTracer 替换默认 tracer
func (p *GormTracingPlugin) WithTracer(tracer trace.Tracer) *GormTracingPlugin {
	p.tracer = tracer
	return p
}

// Name 插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func() error
		after  func() error
	}{
		{"CREATE",
			func() error { return cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")) },
			func() error { return cb.Create().After("gorm:create").Register("otel:after_create", p.after()) }},
		{"SELECT",
			func() error { return cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")) },
			func() error { return cb.Query().After("gorm:query").Register("otel:after_query", p.after()) }},
		{"UPDATE",
			func() error { return cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")) },
			func() error { return cb.Update().After("gorm:update").Register("otel:after_update", p.after()) }},
		{"DELETE",
			func() error { return cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")) },
			func() error { return cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()) }},
		{"ROW",
			func() error { return cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")) },
			func() error { return cb.Row().After("gorm:row").Register("otel:after_row", p.after()) }},
		{"RAW",
			func() error { return cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")) },
			func() error { return cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()) }},
	}
	for _, h := range hooks {
		if err := h.before(); err != nil {
			return fmt.Errorf("注册 %s 前置回调失败: %w", h.op, err)
		}
		if err := h.after(); err != nil {
			return fmt.Errorf("注册 %s 后置回调失败: %w", h.op, err)
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}
		if sql := db.Statement.SQL.String(); sql != "" {
			opts = append(opts, trace.WithAttributes(attribute.String("db.statement", tracing.SafeSQL(sql))))
		}

		newCtx, span := p.tracer.Start(ctx, operation+" "+tableName, opts...)
		db.Statement.Context = context.WithValue(newCtx, spanContextKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement.Context == nil {
			return
		}
		span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查无记录属于正常业务分支
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// MySQL 导入记录与 outbox 的持久化
type MySQL struct {
	db     *gorm.DB
	cfg    *config.MySQLConfig
	logger zerolog.Logger
}

// NewMySQL 连接数据库、注册追踪插件并迁移表结构
func NewMySQL(cfg *config.MySQLConfig, log zerolog.Logger) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	m, err := newMySQLFromDB(db, cfg, log)
	if err != nil {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := m.db.Session(&gorm.Session{Logger: logger.Discard}).
		AutoMigrate(&models.ResumeImport{}, &models.OutboxMessage{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	m.logger.Info().Str("database", cfg.Database).Msg("成功连接到MySQL并完成表结构迁移")
	return m, nil
}

func newMySQLFromDB(db *gorm.DB, cfg *config.MySQLConfig, log zerolog.Logger) (*MySQL, error) {
	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}
	return &MySQL{db: db, cfg: cfg, logger: log.With().Str("component", "mysql").Logger()}, nil
}

func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	case 4:
		return logger.Info
	default:
		return logger.Warn
	}
}

// DB 返回GORM连接
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// CreateImport 写入新的导入记录
func (m *MySQL) CreateImport(ctx context.Context, imp *models.ResumeImport) error {
	if err := m.db.WithContext(ctx).Create(imp).Error; err != nil {
		return fmt.Errorf("写入导入记录 %s 失败: %w", imp.SubmissionUUID, err)
	}
	return nil
}

// CompleteImport 在同一事务中保存解析结果和待发布事件
// msg 为 nil 时只保存结果
func (m *MySQL) CompleteImport(ctx context.Context, imp *models.ResumeImport, msg *models.OutboxMessage) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(imp).Error; err != nil {
			return fmt.Errorf("保存解析结果 %s 失败: %w", imp.SubmissionUUID, err)
		}
		if msg == nil {
			return nil
		}
		if msg.Status == "" {
			msg.Status = models.OutboxStatusPending
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("写入outbox消息失败: %w", err)
		}
		return nil
	})
}

// MarkImportFailed 标记解析失败
func (m *MySQL) MarkImportFailed(ctx context.Context, submissionUUID, reason string) error {
	return m.db.WithContext(ctx).Model(&models.ResumeImport{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(map[string]interface{}{
			"status":        models.ImportStatusFailed,
			"error_message": reason,
		}).Error
}

// GetImport 按提交UUID读取导入记录，不存在时返回 ErrNotFound
func (m *MySQL) GetImport(ctx context.Context, submissionUUID string) (*models.ResumeImport, error) {
	var imp models.ResumeImport
	err := m.db.WithContext(ctx).First(&imp, "submission_uuid = ?", submissionUUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询导入记录 %s 失败: %w", submissionUUID, err)
	}
	return &imp, nil
}

// ListStaleImports 列出需要重新解析的记录：解析失败的，或由其他解析器版本生成的
// 只返回保留了原始文件的记录，按创建时间升序
func (m *MySQL) ListStaleImports(ctx context.Context, parserVersion string, limit int) ([]models.ResumeImport, error) {
	var imps []models.ResumeImport
	q := m.db.WithContext(ctx).
		Where("original_object <> ''").
		Where("status = ? OR (status = ? AND parser_version <> ?)",
			models.ImportStatusFailed, models.ImportStatusParsed, parserVersion).
		Order("created_at")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&imps).Error; err != nil {
		return nil, fmt.Errorf("查询待重新解析记录失败: %w", err)
	}
	return imps, nil
}
