package main

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/catalogtools/stripd/pkg/config"
)

// configFlags records which config.Config field each flag sets, so
// that flags given on the command line can be laid over a config
// file.
type configFlags struct {
	fs     *pflag.FlagSet
	values *config.Config
	fields map[string]string
}

// defineConfigFlags defines the flags that can also be set in a config
// file. Each is bound to the field of the same name in values, with
// the field's current value as the default.
func defineConfigFlags(fs *pflag.FlagSet, values *config.Config, bail func(error)) *configFlags {
	cf := &configFlags{fs: fs, values: values, fields: map[string]string{}}
	v := reflect.ValueOf(values).Elem()

	field := func(fieldName, flagName string) reflect.Value {
		f := v.FieldByName(fieldName)
		if !f.IsValid() {
			bail(fmt.Errorf("attempt to bind flag %q to a field not present in config.Config, %q", flagName, fieldName))
			return reflect.Value{}
		}
		st, _ := v.Type().FieldByName(fieldName)
		if tag := strings.Split(st.Tag.Get("yaml"), ",")[0]; tag == "-" {
			bail(fmt.Errorf("attempt to bind a flag to a config field tagged as ignored, %q", fieldName))
			return reflect.Value{}
		}
		cf.fields[flagName] = fieldName
		return f
	}

	defineString := func(fieldName, flagName, desc string) {
		if f := field(fieldName, flagName); f.IsValid() {
			p := f.Addr().Interface().(*string)
			fs.StringVar(p, flagName, *p, desc)
		}
	}
	defineStringP := func(fieldName, flagName, short, desc string) {
		if f := field(fieldName, flagName); f.IsValid() {
			p := f.Addr().Interface().(*string)
			fs.StringVarP(p, flagName, short, *p, desc)
		}
	}
	defineBool := func(fieldName, flagName, desc string) {
		if f := field(fieldName, flagName); f.IsValid() {
			p := f.Addr().Interface().(*bool)
			fs.BoolVar(p, flagName, *p, desc)
		}
	}
	defineInt := func(fieldName, flagName, desc string) {
		if f := field(fieldName, flagName); f.IsValid() {
			p := f.Addr().Interface().(*int)
			fs.IntVar(p, flagName, *p, desc)
		}
	}
	defineFloat64 := func(fieldName, flagName, desc string) {
		if f := field(fieldName, flagName); f.IsValid() {
			p := f.Addr().Interface().(*float64)
			fs.Float64Var(p, flagName, *p, desc)
		}
	}
	defineDuration := func(fieldName, flagName, desc string) {
		if f := field(fieldName, flagName); f.IsValid() {
			p := f.Addr().Interface().(*time.Duration)
			fs.DurationVar(p, flagName, *p, desc)
		}
	}

	defineString("LogFormat", "log-format", "change the log format; one of fmt, json")
	defineStringP("Listen", "listen", "l", "listen address where /metrics and API will be served")

	// the table
	defineStringP("TablePath", "table", "f", "path of the ;-delimited catalog file to load at startup")
	defineString("TableDir", "table-dir", "directory from which clients may load other catalog files; if empty, only --table can be loaded")
	defineString("TableEncoding", "table-encoding", "text encoding of the catalog file; utf-8 or windows-1251")
	defineString("TableDelimiter", "table-delimiter", "field delimiter of the catalog file")
	defineString("ImagePrefix", "image-prefix", "columns whose header starts with this are image slots")
	defineString("DisplayColumn", "display-column", "column shown as the article of each row")
	defineInt("PageSize", "page-size", "rows per page")

	// image cache
	defineString("CacheBackend", "cache-backend", "where fetched images are kept; one of disk, memcached, redis, minio")
	defineString("CacheDir", "cache-dir", "directory for the disk cache")
	defineDuration("CacheTimeout", "cache-timeout", "maximum time to wait before giving up on cache requests")

	defineString("MemcachedHostname", "memcached-hostname", "hostname for memcached service.")
	defineInt("MemcachedPort", "memcached-port", "memcached service port.")
	defineString("MemcachedService", "memcached-service", "SRV service used to discover memcache servers.")

	defineString("RedisHost", "redis-host", "redis host")
	defineInt("RedisPort", "redis-port", "redis port")
	defineString("RedisPrefix", "redis-prefix", "prefix for cache keys in redis")

	defineString("MinioEndpoint", "minio-endpoint", "S3-compatible endpoint, e.g., minio:9000")
	defineString("MinioAccessKey", "minio-access-key", "access key for the S3-compatible endpoint")
	defineString("MinioSecretKey", "minio-secret-key", "secret key for the S3-compatible endpoint")
	defineBool("MinioSecure", "minio-secure", "use TLS to talk to the S3-compatible endpoint")
	defineString("MinioBucket", "minio-bucket", "bucket images are kept in")
	defineString("MinioPrefix", "minio-prefix", "object name prefix for images")

	// fetching images
	defineDuration("FetchTimeout", "fetch-timeout", "maximum time to wait for an image to download")
	defineFloat64("FetchRPS", "fetch-rps", "maximum image requests per second per host")
	defineInt("FetchBurst", "fetch-burst", "burst of image requests allowed per host")
	defineInt("ResolveBurst", "resolve-burst", "maximum number of images fetched at once for a page")

	return cf
}

// apply lays the flags given on the command line over c.
func (cf *configFlags) apply(c *config.Config) {
	from := reflect.ValueOf(cf.values).Elem()
	to := reflect.ValueOf(c).Elem()
	cf.fs.Visit(func(f *pflag.Flag) {
		if name, ok := cf.fields[f.Name]; ok {
			to.FieldByName(name).Set(from.FieldByName(name))
		}
	})
}
