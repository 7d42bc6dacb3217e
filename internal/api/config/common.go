package config

// Config 配置主体
type Config struct {
	Server            ServerConfig      `mapstructure:"server"`
	DB                DBConfig          `mapstructure:"database"`
	Redis             RedisConfig       `mapstructure:"redis"`
	MinIO             MinIOConfig       `mapstructure:"minio"`
	Elastic           ElasticConfig     `mapstructure:"elastic"`
	Mongo             MongoConfig       `mapstructure:"mongo"`
	LLM               LLMConfig         `mapstructure:"llm"`
	Kafka             KafkaConfig       `mapstructure:"kafka"`
	KafkaTaskConsumer KafkaTaskConsumer `mapstructure:"kafka_task_consumer"`
	Comfy             ComfyConfig       `mapstructure:"comfy"`
	Credits           CreditsConfig     `mapstructure:"credits"`
	Logstash          LogstashConfig    `mapstructure:"logstash"`
}

// LogstashConfig 日志上报配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	MainBucket       string `mapstructure:"main_bucket"`
	TempBucket       string `mapstructure:"temp_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	UsePublicLink    bool   `mapstructure:"use_public_link"`
}

// ElasticConfig Elastic配置
type ElasticConfig struct {
	Address  string         `mapstructure:"address"`
	Username string         `mapstructure:"username"`
	Password string         `mapstructure:"password"`
	Indices  ElasticIndices `mapstructure:"indices"`
}

// ElasticIndices Elastic索引
type ElasticIndices struct {
	MediaIndex string `mapstructure:"media_index"`
}

// MongoConfig Mongo配置
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type LLMConfig struct {
	URL         string           `mapstructure:"url"`
	TextModel   string           `mapstructure:"text_model"`
	ApiKey      string           `mapstructure:"api_key"`
	PromptsPath PromptPathConfig `mapstructure:"prompts_path"`
}

type PromptPathConfig struct {
	PromptEnhance string `mapstructure:"prompt_enhance"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaTaskConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// ComfyConfig 远端推理服务配置
type ComfyConfig struct {
	EndpointURL  string             `mapstructure:"endpoint_url"`
	EndpointID   string             `mapstructure:"endpoint_id"`
	ApiKey       string             `mapstructure:"api_key"`
	SyncSubmit   bool               `mapstructure:"sync_submit"`
	TextToImage  WorkflowFileConfig `mapstructure:"text_to_image"`
	ImageToImage WorkflowFileConfig `mapstructure:"image_to_image"`
}

// WorkflowFileConfig 工作流模板文件及其节点绑定
type WorkflowFileConfig struct {
	TemplatePath   string `mapstructure:"template_path"`
	SeedNode       string `mapstructure:"seed_node"`
	PositiveNode   string `mapstructure:"positive_node"`
	NegativeNode   string `mapstructure:"negative_node"`
	BatchSizeNode  string `mapstructure:"batch_size_node"`
	LoadImageNode  string `mapstructure:"load_image_node"`
	OutputNode     string `mapstructure:"output_node"`
	DefaultSdModel string `mapstructure:"default_sd_model"`
}

// CreditsConfig 积分配置
type CreditsConfig struct {
	CostPerOutput    int64 `mapstructure:"cost_per_output"`
	SignupGrant      int64 `mapstructure:"signup_grant"`
	PresignTTLMinute int   `mapstructure:"presign_ttl_minute"`
	HistoryKeep      int   `mapstructure:"history_keep"`
}
