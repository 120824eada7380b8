package storage

import (
	"fmt"
	"time"

	"tunebox/model"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// Summarize 汇总对象列表
func Summarize(objects []model.StoredObject) BucketStats {
	var stats BucketStats
	for _, obj := range objects {
		stats.TotalObjects++
		stats.TotalSize += obj.Size
		if obj.LastModified.After(stats.LastModified) {
			stats.LastModified = obj.LastModified
		}
	}
	return stats
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
