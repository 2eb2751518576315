// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"podcast-rag-go/internal/config"
	"podcast-rag-go/pkg/log"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "podcast-rag",
		Short:         "Question answering over podcast transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs/config.yaml", "path to config.yaml")
	rootCmd.AddCommand(newServeCmd(), newAskCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 读取配置并初始化日志记录器。
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	config.Conf = *cfg
	if err := log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("日志记录器初始化成功")
	return cfg, nil
}
