package agent

import (
	"github.com/spf13/cobra"
)

func initReporterFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	p := "reporter."

	f.Duration(p+"interval", defaultCfg.Reporter.Interval, "-> Reporting interval shared by all sources (上报间隔)")
	f.String(p+"mode", defaultCfg.Reporter.Mode, "-> Emission mode [events,measurements] (上报模式)")
	f.String(p+"metric-prefix", defaultCfg.Reporter.MetricPrefix, "-> Prefix prepended to measurement names (measurement 名前缀)")
	f.String(p+"event-type", defaultCfg.Reporter.EventType, "-> Event type used in events mode (事件类型)")
	f.Bool(p+"debug", defaultCfg.Reporter.Debug, "-> Log every narrowed sample at debug level (打印每个读数)")
	f.String(p+"worker-name-format", defaultCfg.Reporter.WorkerNameFormat, "-> Worker name template with one integer verb (工作协程命名模板)")
	f.StringSlice(p+"sources", defaultCfg.Reporter.Sources, "-> Enabled sources [process,goruntime] (启用的指标源)")
	f.StringSlice(p+"sinks", defaultCfg.Reporter.Sinks, "-> Enabled sinks [prometheus,log,otel] (启用的上报后端)")
}
