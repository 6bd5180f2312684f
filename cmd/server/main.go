package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"guild-ledger/backend/config"
	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/repository"
	"guild-ledger/backend/pkg/database"
	applogger "guild-ledger/backend/pkg/logger"
)

const programName = "guild-ledger"

var configFile string

func main() {
	root := &cobra.Command{
		Use:           programName,
		Short:         "公会账本后端：角色时间线、工资分配、出勤统计",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")

	root.AddCommand(
		serveCommand(),
		migrateCommand(),
		seedCommand(),
		initRoleHistoryCommand(),
		recalculateCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}

// app 各子命令共享的基础依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repo   *repository.Repository
}

// bootstrap 加载配置、初始化日志、连接数据库并执行迁移
func bootstrap() (*app, error) {
	// 1. 加载配置
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof)); err != nil {
		logger.Warn("设置 GOMAXPROCS 失败", zap.Error(err))
	}

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	logger.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	// 4. 执行数据库迁移
	if err := database.RunMigrations(db, cfg.Database.Driver, model.All(), logger); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		repo:   repository.NewRepository(db),
	}, nil
}

// close 释放数据库连接并刷新日志
func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	_ = a.logger.Sync()
}
