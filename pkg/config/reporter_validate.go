package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Validate HTTP服务配置校验
func (h *ServerConfig) Validate() error {
	if err := valid.Struct(h); err != nil {
		return err
	}
	if h.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if _, err := net.ResolveTCPAddr("tcp", h.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", h.Addr, err)
	}
	return nil
}

// Validate 上报配置校验（tag 之外的业务规则）
func (r *ReporterConfig) Validate() error {
	if err := valid.Struct(r); err != nil {
		return err
	}
	if r.Interval <= 0 || r.Interval > time.Hour {
		return fmt.Errorf("reporter.interval must be within (0s, 1h], got %s", r.Interval)
	}
	if r.AsEvents() && strings.TrimSpace(r.EventType) == "" {
		return errors.New("reporter.event_type is required when reporter.mode is events")
	}
	// 与 WorkerFactory 同样的渲染校验，错误模板在加载配置时就失败
	if rendered := fmt.Sprintf(r.WorkerNameFormat, 0); strings.Contains(rendered, "%!") {
		return fmt.Errorf("reporter.worker_name_format %q must contain exactly one integer verb, renders as %q", r.WorkerNameFormat, rendered)
	}
	if err := uniqueNonEmpty("reporter.sources", r.Sources); err != nil {
		return err
	}
	return uniqueNonEmpty("reporter.sinks", r.Sinks)
}

// uniqueNonEmpty 列表不能包含空字符串或重复项
func uniqueNonEmpty(key string, items []string) error {
	seen := map[string]bool{}
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			return fmt.Errorf("%s cannot contain empty string", key)
		}
		if seen[item] {
			return fmt.Errorf("%s duplicated entry: %q", key, item)
		}
		seen[item] = true
	}
	return nil
}
