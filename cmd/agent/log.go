package agent

import (
	"github.com/spf13/cobra"
)

func initLogFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	logPrefix := "log."

	f.String(logPrefix+"level", defaultCfg.Log.Level, "-> Log level [debug,info,warn,error] | 日志级别")
	f.String(logPrefix+"format", defaultCfg.Log.Format, "-> Log format [console,json] | 日志格式")
	f.String(logPrefix+"path", defaultCfg.Log.Path, "-> Log file directory | 日志路径")
	f.Int(logPrefix+"max-size", defaultCfg.Log.MaxSize, "-> Max size of a single log file (MB) | 单文件最大MB")
	f.Int(logPrefix+"max-backup", defaultCfg.Log.MaxBackup, "-> Number of rotated files to keep | 备份数量")
	f.Int(logPrefix+"max-age", defaultCfg.Log.MaxAge, "-> Maximum retention days of log files | 保存天数")
	f.Bool(logPrefix+"compress", defaultCfg.Log.Compress, "-> Compress rotated log files | 是否压缩")
}
