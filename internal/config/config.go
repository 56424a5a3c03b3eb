package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper" // 导入 Viper
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	MySQL         MySQLConfig         `mapstructure:"mysql"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	AliyunOSS     AliyunOSSConfig     `mapstructure:"aliyun_oss"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Log           LogConfig           `mapstructure:"log"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Access        AccessConfig        `mapstructure:"access"`
	Share         ShareConfig         `mapstructure:"share"`
	Audit         AuditConfig         `mapstructure:"audit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	Region          string `mapstructure:"region"` // 为空时签名前会查询桶所在区域
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

type StorageConfig struct {
	Type string `mapstructure:"type"` // minio | aliyun_oss
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// ElasticsearchConfig 定义 Elasticsearch 连接配置
// Addresses 为空时不启用审计镜像
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// AccessConfig 权限解析相关配置
type AccessConfig struct {
	MaxFolderDepth int           `mapstructure:"max_folder_depth"` // 祖先链超过该长度视为环
	GrantCacheTTL  time.Duration `mapstructure:"grant_cache_ttl"`  // 0 表示不缓存授权
}

// ShareConfig 分享链接相关配置
type ShareConfig struct {
	TokenBytes         int           `mapstructure:"token_bytes"`
	PresignedURLExpiry time.Duration `mapstructure:"presigned_url_expiry"`
}

// AuditConfig 审计日志相关配置
type AuditConfig struct {
	RetryStream string `mapstructure:"retry_stream"`
	RetryGroup  string `mapstructure:"retry_group"`
	ESIndex     string `mapstructure:"es_index"`
}

var AppConfig *Config // 全局应用配置实例

// SetDefaults 注册默认值，测试中也会用到
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("storage.type", "minio")
	v.SetDefault("minio.region", "us-east-1")
	v.SetDefault("log.output_path", "logs/app.log")
	v.SetDefault("log.error_path", "logs/error.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.expires_in", 60*time.Minute)
	v.SetDefault("jwt.issuer", "go-docvault")
	v.SetDefault("access.max_folder_depth", 1000)
	v.SetDefault("access.grant_cache_ttl", 5*time.Minute)
	v.SetDefault("share.token_bytes", 32)
	v.SetDefault("share.presigned_url_expiry", 15*time.Minute)
	v.SetDefault("audit.retry_stream", "audit:retry")
	v.SetDefault("audit.retry_group", "audit-retry")
	v.SetDefault("audit.es_index", "docvault-access-logs")
}

// LoadConfig 加载配置
func LoadConfig() (*Config, error) {
	v := viper.GetViper()
	v.SetConfigName("config")            // 配置文件名 (不带扩展名)
	v.SetConfigType("yaml")              // 配置文件类型
	v.AddConfigPath(".")                 // 在当前目录查找配置文件
	v.AddConfigPath("./configs")         // 也可以添加其他路径，例如 ./configs/
	v.AddConfigPath("/etc/go-docvault/") // 生产环境常见路径

	// 例如 GO_DOCVAULT_ACCESS_MAX_FOLDER_DEPTH 对应 access.max_folder_depth
	v.SetEnvPrefix("GO_DOCVAULT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// 配置文件未找到不是致命错误，依赖环境变量和默认值
		log.Println("Warning: config file not found, using environment variables or default values.")
	}

	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	AppConfig = cfg

	log.Println("Configuration loaded successfully with Viper.")
	return AppConfig, nil
}

// Decode 将 viper 中的配置绑定到结构体并校验
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.Access.MaxFolderDepth <= 0 {
		return nil, errors.New("access.max_folder_depth must be positive")
	}
	if cfg.Share.TokenBytes < 16 {
		// token 至少 128 bit
		return nil, errors.New("share.token_bytes must be at least 16")
	}
	return cfg, nil
}
