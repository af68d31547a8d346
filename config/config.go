package config

import "time"

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig   RedisStorageConfig
	HttpPort      int
	StorageType   StorageType
	EngineConfig  EngineConfig
	OracleConfig  OracleConfig
	MailerConfig  MailerConfig
	SmsConfig     SmsConfig
	FollowupDelay time.Duration
	AuditLogFile  string
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}

type EngineConfig struct {
	MaxRetries   int
	RetryDelay   time.Duration
	PollInterval time.Duration
	PollBatch    int
}

type OracleConfig struct {
	ApiKey  string
	Model   string
	BaseUrl string
}

type MailerConfig struct {
	ApiKey      string
	SenderEmail string
	BaseUrl     string
}

type SmsConfig struct {
	AccountSid string
	AuthToken  string
	FromNumber string
	BaseUrl    string
}
