package cmd

import (
	"fmt"

	"tunebox/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据库表结构",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return fmt.Errorf("无法连接数据库: %w", err)
		}
		defer db.CloseGormDB(gdb)

		if err := db.AutoMigrate(gdb); err != nil {
			return fmt.Errorf("迁移失败: %w", err)
		}
		fmt.Printf("数据库迁移完成 (driver: %s)\n", cfg.DBDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
