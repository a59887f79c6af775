package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/meeting-room-booking/backend/internal/config"
	"github.com/meeting-room-booking/backend/internal/repository"
	"github.com/meeting-room-booking/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var emailDomainName string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入演示数据, 2: 插入随机用户)")
	flag.IntVar(&n, "n", 5, "要插入的随机用户数量")
	flag.StringVar(&emailDomainName, "email-domain", "example.com", "随机用户邮箱的域名")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 1:
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.TransactionTimeout)*time.Second)
		defer cancel()

		if err := seed.InsertDemoData(ctx, dbpool, cfg); err != nil {
			logger.Error("插入演示数据失败", "error", err)
			return
		}
		logger.Info("插入演示数据成功")
	case 2:
		if err := seed.InsertRandomUsers(repo, n, cfg.Seed.User.Password, emailDomainName); err != nil {
			logger.Error("插入随机用户失败", "error", err)
			return
		}
		logger.Info("插入随机用户成功", "n", n)
	default:
		logger.Error("未知的操作", "op", op)
	}
}
