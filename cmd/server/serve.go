package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"podcast-rag-go/internal/handler"
	"podcast-rag-go/internal/middleware"
	"podcast-rag-go/internal/session"
	"podcast-rag-go/pkg/log"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目

			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions := session.NewManager(cfg.Session)
			defer sessions.Close()

			// 设置 Gin 模式并创建路由引擎
			gin.SetMode(cfg.Server.Mode)
			r := gin.New()
			r.Use(middleware.RequestLogger(), gin.Recovery())
			handler.RegisterRoutes(r, handler.Deps{
				Sessions:      sessions,
				Ingester:      a.processor,
				Chat:          a.chat,
				Conversation:  a.conversation,
				MaxUploadSize: cfg.Server.MaxUploadSize,
			})

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
				Handler: r,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Infof("服务启动于 %s", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// 等待中断信号以实现优雅停机
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("HTTP 服务监听失败: %w", err)
			case <-quit:
			}
			log.Info("接收到停机信号，正在关闭服务...")

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("HTTP 服务器关闭失败: %w", err)
			}
			log.Info("服务已优雅关闭")
			return nil
		},
	}
}
