// config is the package containing configuration for stripd, shared
// so it can be used by stripd itself as well as by tests and tools
// that write config files.
package config

import (
	"fmt"
	"io/ioutil"
	"time"
	"unicode/utf8"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/catalogtools/stripd/pkg/imagecache"
	"github.com/catalogtools/stripd/pkg/session"
	"github.com/catalogtools/stripd/pkg/table"
)

const (
	ConfigName          = "stripd.yaml"
	StripdConfigVersion = "v1"
)

const (
	CacheDisk      = "disk"
	CacheMemcached = "memcached"
	CacheRedis     = "redis"
	CacheMinio     = "minio"
)

type Config struct {
	// This is expected to be present in a config file (and will not
	// correspond to a flag). If it is not equal to StripdConfigVersion
	// above, the file is considered an invalid configuration.
	ConfigVersion string `yaml:"stripdConfigVersion"`

	LogFormat string `yaml:"logFormat"`
	Listen    string `yaml:"listen"`

	TablePath      string `yaml:"tablePath"`
	TableDir       string `yaml:"tableDir"`
	TableEncoding  string `yaml:"tableEncoding"`
	TableDelimiter string `yaml:"tableDelimiter"`
	ImagePrefix    string `yaml:"imagePrefix"`
	DisplayColumn  string `yaml:"displayColumn"`
	PageSize       int    `yaml:"pageSize"`

	CacheBackend string        `yaml:"cacheBackend"`
	CacheDir     string        `yaml:"cacheDir"`
	CacheTimeout time.Duration `yaml:"cacheTimeout"`

	MemcachedHostname string `yaml:"memcachedHostname"`
	MemcachedPort     int    `yaml:"memcachedPort"`
	MemcachedService  string `yaml:"memcachedService"`

	RedisHost   string `yaml:"redisHost"`
	RedisPort   int    `yaml:"redisPort"`
	RedisPrefix string `yaml:"redisPrefix"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioSecure    bool   `yaml:"minioSecure"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioPrefix    string `yaml:"minioPrefix"`

	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	FetchRPS     float64       `yaml:"fetchRps"`
	FetchBurst   int           `yaml:"fetchBurst"`
	ResolveBurst int           `yaml:"resolveBurst"`
}

// Default is the configuration used for anything not given in a
// config file or a flag.
func Default() Config {
	return Config{
		LogFormat: "fmt",
		Listen:    "127.0.0.1:3031",

		TableEncoding:  table.EncodingUTF8,
		TableDelimiter: string(table.DefaultDelimiter),
		ImagePrefix:    table.DefaultImagePrefix,
		DisplayColumn:  session.DefaultDisplayColumn,
		PageSize:       session.DefaultPageSize,

		CacheBackend: CacheDisk,
		CacheDir:     "image_cache",
		CacheTimeout: time.Second,

		MemcachedPort:    11211,
		MemcachedService: "memcached",
		RedisPort:        6379,
		RedisPrefix:      "stripd:",
		MinioPrefix:      "images/",

		FetchTimeout: 10 * time.Second,
		FetchRPS:     20,
		FetchBurst:   10,
		ResolveBurst: imagecache.DefaultBurst,
	}
}

// LoadFile reads a config file. Fields not present are left zero.
func LoadFile(path string) (Config, error) {
	var c Config
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "reading config file %s", path)
	}
	if err := yaml.UnmarshalStrict(bytes, &c); err != nil {
		return c, errors.Wrapf(err, "parsing config file %s", path)
	}
	if c.ConfigVersion != StripdConfigVersion {
		return c, fmt.Errorf("config file is expected to include `stripdConfigVersion: %s` to mark it as a stripd config", StripdConfigVersion)
	}
	return c, nil
}

// Merge returns base with every non-zero field of over laid on top.
func Merge(base, over Config) (Config, error) {
	if err := mergo.Merge(&base, over, mergo.WithOverride); err != nil {
		return base, errors.Wrap(err, "merging configuration")
	}
	return base, nil
}

// TableOptions is how the table file is read and written.
func (c Config) TableOptions() table.Options {
	opts := table.Options{
		Encoding:    c.TableEncoding,
		ImagePrefix: c.ImagePrefix,
	}
	if r, _ := utf8.DecodeRuneInString(c.TableDelimiter); r != utf8.RuneError {
		opts.Delimiter = r
	}
	return opts
}

func (c Config) IsValid() error {
	switch c.LogFormat {
	case "fmt", "json":
	default:
		return fmt.Errorf("log format %q is not one of fmt, json", c.LogFormat)
	}
	if utf8.RuneCountInString(c.TableDelimiter) > 1 {
		return fmt.Errorf("table delimiter %q must be a single character", c.TableDelimiter)
	}
	if err := c.TableOptions().Validate(); err != nil {
		return err
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1, got %d", c.PageSize)
	}
	if c.FetchRPS <= 0 || c.FetchBurst < 1 {
		return fmt.Errorf("fetch rate limit %v with burst %d cannot admit any request", c.FetchRPS, c.FetchBurst)
	}
	if c.ResolveBurst < 1 {
		return fmt.Errorf("resolve burst must be at least 1, got %d", c.ResolveBurst)
	}

	switch c.CacheBackend {
	case CacheDisk:
		if c.CacheDir == "" {
			return errors.New("the disk cache needs a directory")
		}
	case CacheMemcached:
		if c.MemcachedHostname == "" {
			return errors.New("the memcached cache needs a hostname")
		}
	case CacheRedis:
		if c.RedisHost == "" {
			return errors.New("the redis cache needs a host")
		}
	case CacheMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return errors.New("the minio cache needs an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("cache backend %q is not one of %s, %s, %s, %s", c.CacheBackend, CacheDisk, CacheMemcached, CacheRedis, CacheMinio)
	}
	return nil
}
