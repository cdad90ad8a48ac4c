package imagecache

import (
	"bytes"
	"context"
	"io/ioutil"
	"path"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// MinioClient keeps cached images as objects in a bucket of an
// S3-compatible store.
type MinioClient struct {
	client  *minio.Client
	bucket  string
	prefix  string
	timeout time.Duration
	logger  log.Logger
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Bucket    string
	Prefix    string
	Timeout   time.Duration
	Logger    log.Logger
}

func NewMinioClient(config MinioConfig) (*MinioClient, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.Secure,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", config.Endpoint)
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MinioClient{
		client:  client,
		bucket:  config.Bucket,
		prefix:  config.Prefix,
		timeout: timeout,
		logger:  config.Logger,
	}, nil
}

func (c *MinioClient) object(k Keyer) string {
	return path.Join(c.prefix, k.Key())
}

func (c *MinioClient) GetKey(k Keyer) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	obj, err := c.client.GetObject(ctx, c.bucket, c.object(k), minio.GetObjectOptions{})
	if err != nil {
		c.logger.Log("err", errors.Wrap(err, "fetching image from bucket"))
		return nil, err
	}
	defer obj.Close()

	b, err := ioutil.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotCached
		}
		c.logger.Log("err", errors.Wrap(err, "fetching image from bucket"))
		return nil, err
	}
	return b, nil
}

func (c *MinioClient) SetKey(k Keyer, v []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	_, err := c.client.PutObject(ctx, c.bucket, c.object(k), bytes.NewReader(v), int64(len(v)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		c.logger.Log("err", errors.Wrap(err, "storing in bucket"))
		return err
	}
	return nil
}
