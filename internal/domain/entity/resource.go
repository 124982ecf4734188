package entity

import "time"

// Policy representa uma managed policy do IAM.
type Policy struct {
	Name             string `json:"name"`
	Arn              string `json:"arn"`
	DefaultVersionID string `json:"default_version_id"`
}

// PolicyVersion representa uma versão de uma managed policy.
type PolicyVersion struct {
	VersionID  string    `json:"version_id"`
	IsDefault  bool      `json:"is_default"`
	CreateDate time.Time `json:"create_date"`
}

// Role representa uma role do IAM.
type Role struct {
	Name string `json:"name"`
	Arn  string `json:"arn"`
}

// Topic representa um tópico SNS.
type Topic struct {
	Name string `json:"name"`
	Arn  string `json:"arn"`
}

// Subscription representa uma assinatura de um tópico SNS.
type Subscription struct {
	Arn      string `json:"arn"`
	Protocol string `json:"protocol"`
	Endpoint string `json:"endpoint"`
}

// Function representa uma função Lambda.
type Function struct {
	Name    string `json:"name"`
	Arn     string `json:"arn"`
	RoleArn string `json:"role_arn"`
}

// FunctionSpec descreve a função Lambda de monitoramento a ser criada.
type FunctionSpec struct {
	Name         string            `json:"name"`
	RoleArn      string            `json:"role_arn"`
	Runtime      string            `json:"runtime"`
	Handler      string            `json:"handler"`
	MemorySize   int               `json:"memory_size"`
	Timeout      int               `json:"timeout"`
	Environment  map[string]string `json:"environment"`
	ZipFile      []byte            `json:"-"`
	CodeS3Bucket string            `json:"code_s3_bucket,omitempty"`
	CodeS3Key    string            `json:"code_s3_key,omitempty"`
}

// LogGroup representa um log group do CloudWatch Logs.
type LogGroup struct {
	Name          string `json:"name"`
	Arn           string `json:"arn"`
	RetentionDays int    `json:"retention_days"` // 0 => Never expire
}

// SubscriptionFilter representa um subscription filter de um log group.
type SubscriptionFilter struct {
	Name           string `json:"name"`
	LogGroupName   string `json:"log_group_name"`
	FilterPattern  string `json:"filter_pattern"`
	DestinationArn string `json:"destination_arn"`
}
