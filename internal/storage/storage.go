package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/induwarapathirana/cv-creator-sub000/internal/config"
)

// Storage 聚合可选的外部依赖，未启用或初始化失败的组件为 nil
type Storage struct {
	MinIO    *MinIO
	RabbitMQ *RabbitMQ
	MySQL    *MySQL
	Redis    *Redis
}

// NewStorage 按配置初始化各组件
// 单个组件失败只记录警告，解析服务在缺少该组件时降级运行
func NewStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var err error
	var initErrors []string

	if cfg.MinIO.Enabled {
		s.MinIO, err = NewMinIO(ctx, &cfg.MinIO, log)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MinIO失败")
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if cfg.RabbitMQ.Enabled {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ, log)
		if err == nil {
			err = s.RabbitMQ.SetupTopology()
			if err != nil {
				s.RabbitMQ.Close()
				s.RabbitMQ = nil
			}
		}
		if err != nil {
			log.Warn().Err(err).Msg("初始化RabbitMQ失败")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}

	if cfg.MySQL.Enabled {
		s.MySQL, err = NewMySQL(&cfg.MySQL, log)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MySQL失败")
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}

	if cfg.Redis.Enabled {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("初始化Redis失败")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	}

	if len(initErrors) > 0 {
		log.Warn().Str("failed", strings.Join(initErrors, "; ")).Msg("部分存储组件初始化失败，服务将降级运行")
	}
	return s, nil
}

// Close 关闭所有连接，nil 安全
func (s *Storage) Close(log zerolog.Logger) {
	if s == nil {
		return
	}
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
