package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	dir, err := ioutil.TempDir("", "config-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, ConfigName)
	require.NoError(t, ioutil.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().IsValid())
}

func TestFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
stripdConfigVersion: v1
tablePath: /data/update_assortment.csv
tableEncoding: windows-1251
cacheBackend: redis
redisHost: cache.local
fetchTimeout: 3s
minioSecure: true
`)
	file, err := LoadFile(path)
	require.NoError(t, err)

	c, err := Merge(Default(), file)
	require.NoError(t, err)
	assert.NoError(t, c.IsValid())

	assert.Equal(t, "/data/update_assortment.csv", c.TablePath)
	assert.Equal(t, "windows-1251", c.TableEncoding)
	assert.Equal(t, CacheRedis, c.CacheBackend)
	assert.Equal(t, "cache.local", c.RedisHost)
	assert.Equal(t, 3*time.Second, c.FetchTimeout)
	assert.True(t, c.MinioSecure)
	// untouched by the file
	assert.Equal(t, 6379, c.RedisPort)
	assert.Equal(t, "127.0.0.1:3031", c.Listen)
	assert.Equal(t, ';', c.TableOptions().Delimiter)
}

func TestFileNeedsVersion(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "listen: :8080\n"))
	assert.Error(t, err)
}

func TestFileRejectsUnknownFields(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "stripdConfigVersion: v1\nlisten-addr: :8080\n"))
	assert.Error(t, err)
}

func TestIsValid(t *testing.T) {
	for name, change := range map[string]func(*Config){
		"log format":     func(c *Config) { c.LogFormat = "xml" },
		"encoding":       func(c *Config) { c.TableEncoding = "koi8-r" },
		"delimiter":      func(c *Config) { c.TableDelimiter = ";;" },
		"page size":      func(c *Config) { c.PageSize = 0 },
		"backend":        func(c *Config) { c.CacheBackend = "s3" },
		"memcached host": func(c *Config) { c.CacheBackend = CacheMemcached },
		"minio bucket":   func(c *Config) { c.CacheBackend = CacheMinio; c.MinioEndpoint = "minio:9000" },
		"fetch rate":     func(c *Config) { c.FetchRPS = 0 },
		"resolve burst":  func(c *Config) { c.ResolveBurst = 0 },
	} {
		c := Default()
		change(&c)
		assert.Error(t, c.IsValid(), name)
	}
}
