package stores

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"Lifeline/pkg/util"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// CosStore 腾讯云 COS 存储
type CosStore struct {
	BucketURL string `env:"COS_BUCKET_URL"` // 如 https://bucket-appid.cos.ap-region.myqcloud.com
	SecretID  string `env:"COS_SECRET_ID"`
	SecretKey string `env:"COS_SECRET_KEY"`
	BaseURL   string `env:"COS_PUBLIC_BASE"` // 对外访问域名，可选
}

func NewCosStore() Store {
	return &CosStore{
		BucketURL: util.GetEnv("COS_BUCKET_URL"),
		SecretID:  util.GetEnv("COS_SECRET_ID"),
		SecretKey: util.GetEnv("COS_SECRET_KEY"),
		BaseURL:   util.GetEnv("COS_PUBLIC_BASE"),
	}
}

func (s *CosStore) client() (*cos.Client, error) {
	u, err := url.Parse(s.BucketURL)
	if err != nil {
		return nil, err
	}
	return cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  s.SecretID,
			SecretKey: s.SecretKey,
		},
	}), nil
}

func (s *CosStore) Read(key string) (io.ReadCloser, int64, error) {
	cli, err := s.client()
	if err != nil {
		return nil, 0, err
	}
	resp, err := cli.Object.Get(context.Background(), key, nil)
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

func (s *CosStore) Write(key string, r io.Reader) error {
	cli, err := s.client()
	if err != nil {
		return err
	}
	_, err = cli.Object.Put(context.Background(), key, r, nil)
	return err
}

func (s *CosStore) Delete(key string) error {
	cli, err := s.client()
	if err != nil {
		return err
	}
	_, err = cli.Object.Delete(context.Background(), key)
	return err
}

func (s *CosStore) Exists(key string) (bool, error) {
	cli, err := s.client()
	if err != nil {
		return false, err
	}
	ok, err := cli.Object.IsExist(context.Background(), key)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *CosStore) PublicURL(key string) string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/") + "/" + key
	}
	return strings.TrimRight(s.BucketURL, "/") + "/" + key
}
