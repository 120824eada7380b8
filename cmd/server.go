package cmd

import (
	"tunebox/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动曲库服务器",
	Long:  `启动曲库 HTTP 服务，提供 REST API、变更通知 WebSocket 和 Prometheus 指标`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
