package cmd

import (
	"context"
	"fmt"
	"time"

	"tunebox/core/library"
	"tunebox/db"
	"tunebox/repository"
	"tunebox/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix   string
	reapOlderThan time.Duration
	reapDryRun    bool
)

func openStore(ctx context.Context) (*storage.MinioStore, error) {
	fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)
	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("无法连接到MinIO: %w", err)
	}
	return store, nil
}

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看曲库存储桶中的对象、统计信息，并清理没有歌曲引用的上传对象。`,
}

var minioListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出存储桶中的对象",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		objects, err := store.ListObjects(cmd.Context(), minioPrefix)
		if err != nil {
			return fmt.Errorf("列出文件失败: %w", err)
		}
		for _, obj := range objects {
			fmt.Printf("%-60s %10s  %s\n", obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format(time.RFC3339))
		}
		fmt.Printf("\n共 %d 个对象\n", len(objects))
		return nil
	},
}

var minioStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "显示存储桶统计信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		objects, err := store.ListObjects(cmd.Context(), minioPrefix)
		if err != nil {
			return fmt.Errorf("获取存储桶统计信息失败: %w", err)
		}
		stats := storage.Summarize(objects)
		fmt.Printf("存储桶: %s\n", store.Bucket())
		fmt.Printf("对象数量: %d\n", stats.TotalObjects)
		fmt.Printf("总大小: %s\n", storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf("最后修改: %s\n", stats.LastModified.Format(time.RFC3339))
		}
		return nil
	},
}

var minioReapCmd = &cobra.Command{
	Use:   "reap",
	Short: "清理无引用的上传对象",
	Long:  `删除 uploads/ 下没有任何歌曲引用、且早于 --older-than 的对象，用于回收被放弃的上传和删除失败的残留。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return fmt.Errorf("无法连接数据库: %w", err)
		}
		defer db.CloseGormDB(gdb)

		svc := library.NewService(library.Deps{
			Users:     repository.NewGormUserRepository(gdb),
			Songs:     repository.NewGormSongRepository(gdb),
			Favorites: repository.NewGormFavoriteRepository(gdb),
			Objects:   store,
		}, library.OptionsFromConfig(cfg))

		orphans, err := svc.ReapOrphans(ctx, store, reapOlderThan, reapDryRun)
		for _, key := range orphans {
			fmt.Println(key)
		}
		if err != nil {
			return fmt.Errorf("清理失败: %w", err)
		}
		if reapDryRun {
			fmt.Printf("\n发现 %d 个无引用对象（未删除）\n", len(orphans))
		} else {
			fmt.Printf("\n已删除 %d 个无引用对象\n", len(orphans))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.AddCommand(minioListCmd, minioStatsCmd, minioReapCmd)

	minioCmd.PersistentFlags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤对象")
	minioReapCmd.Flags().DurationVar(&reapOlderThan, "older-than", 24*time.Hour, "只清理早于该时长的对象")
	minioReapCmd.Flags().BoolVar(&reapDryRun, "dry-run", false, "只列出，不删除")

	minioCmd.Example = `  # 列出所有对象
  tunebox minio list

  # 按前缀过滤
  tunebox minio list -p "uploads/"

  # 显示存储桶统计信息
  tunebox minio stats

  # 预览并清理无引用对象
  tunebox minio reap --dry-run
  tunebox minio reap --older-than 48h`
}
