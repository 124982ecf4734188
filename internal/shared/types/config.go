package types

// Config represents the application configuration that can be loaded from a file.
// Os nomes espelham as variáveis do arquivo de configuração original dos scripts.
type Config struct {
	Profile         string   `json:"profile" yaml:"profile" toml:"profile"`
	Region          string   `json:"region" yaml:"region" toml:"region"`
	LoggingPolicy   string   `json:"logging_policy" yaml:"logging_policy" toml:"logging_policy"`
	MonitorPolicy   string   `json:"monitor_policy" yaml:"monitor_policy" toml:"monitor_policy"`
	MonitorRole     string   `json:"monitor_role" yaml:"monitor_role" toml:"monitor_role"`
	MonitorFunction string   `json:"monitor_function" yaml:"monitor_function" toml:"monitor_function"`
	ReportingTopic  string   `json:"reporting_topic" yaml:"reporting_topic" toml:"reporting_topic"`
	Runtime         string   `json:"runtime" yaml:"runtime" toml:"runtime"`
	Handler         string   `json:"handler" yaml:"handler" toml:"handler"`
	MemorySize      int      `json:"memory_size" yaml:"memory_size" toml:"memory_size"`
	Timeout         int      `json:"timeout" yaml:"timeout" toml:"timeout"`
	CodeFile        string   `json:"code_file" yaml:"code_file" toml:"code_file"`
	CodeS3Bucket    string   `json:"code_s3_bucket" yaml:"code_s3_bucket" toml:"code_s3_bucket"`
	CodeS3Key       string   `json:"code_s3_key" yaml:"code_s3_key" toml:"code_s3_key"`
	LogLevel        string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	RetentionDays   int      `json:"retention_days" yaml:"retention_days" toml:"retention_days"`
	PropagationWait int      `json:"propagation_wait" yaml:"propagation_wait" toml:"propagation_wait"`
	Statuses        []string `json:"statuses" yaml:"statuses" toml:"statuses"`
	Subscribers     []string `json:"subscribers" yaml:"subscribers" toml:"subscribers"`
}

// DefaultConfig retorna uma configuração com os nomes padrão dos recursos.
func DefaultConfig() *Config {
	return &Config{
		LoggingPolicy:   "lambda-logging",
		MonitorPolicy:   "lambda-monitor-access",
		MonitorRole:     "lambda-monitor",
		MonitorFunction: "lambda-monitor",
		ReportingTopic:  "lambda-run-reports",
		Runtime:         "python3.12",
		Handler:         "monitor_lambda_runs.lambda_handler",
		MemorySize:      128,
		Timeout:         60,
		LogLevel:        "INFO",
		PropagationWait: 10,
		Statuses:        []string{"error", "warning"},
	}
}

// Merge sobrescreve os campos preenchidos de override sobre a configuração base.
func (c *Config) Merge(override *Config) {
	if override == nil {
		return
	}
	if override.Profile != "" {
		c.Profile = override.Profile
	}
	if override.Region != "" {
		c.Region = override.Region
	}
	if override.LoggingPolicy != "" {
		c.LoggingPolicy = override.LoggingPolicy
	}
	if override.MonitorPolicy != "" {
		c.MonitorPolicy = override.MonitorPolicy
	}
	if override.MonitorRole != "" {
		c.MonitorRole = override.MonitorRole
	}
	if override.MonitorFunction != "" {
		c.MonitorFunction = override.MonitorFunction
	}
	if override.ReportingTopic != "" {
		c.ReportingTopic = override.ReportingTopic
	}
	if override.Runtime != "" {
		c.Runtime = override.Runtime
	}
	if override.Handler != "" {
		c.Handler = override.Handler
	}
	if override.MemorySize != 0 {
		c.MemorySize = override.MemorySize
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.CodeFile != "" {
		c.CodeFile = override.CodeFile
	}
	if override.CodeS3Bucket != "" {
		c.CodeS3Bucket = override.CodeS3Bucket
	}
	if override.CodeS3Key != "" {
		c.CodeS3Key = override.CodeS3Key
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if override.RetentionDays != 0 {
		c.RetentionDays = override.RetentionDays
	}
	if override.PropagationWait != 0 {
		c.PropagationWait = override.PropagationWait
	}
	if len(override.Statuses) > 0 {
		c.Statuses = override.Statuses
	}
	if len(override.Subscribers) > 0 {
		c.Subscribers = override.Subscribers
	}
}
