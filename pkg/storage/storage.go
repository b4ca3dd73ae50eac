package stores

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"Lifeline/pkg/util"
)

// Store 对象存储抽象，日志快照导出与附件上传共用
type Store interface {
	Read(key string) (io.ReadCloser, int64, error)
	Write(key string, r io.Reader) error
	Delete(key string) error
	Exists(key string) (bool, error)
	PublicURL(key string) string
}

// New 按后端名创建存储实例：minio、cos，默认本地磁盘
func New(backend string) Store {
	switch strings.ToLower(backend) {
	case "minio":
		return NewMinioStore()
	case "cos":
		return NewCosStore()
	default:
		return NewLocalStore()
	}
}

// LocalStore 本地磁盘存储，开发与单机部署使用
type LocalStore struct {
	Root    string `env:"STORAGE_LOCAL_ROOT"`
	BaseURL string `env:"STORAGE_PUBLIC_BASE"`
}

func NewLocalStore() Store {
	root := util.GetEnv("STORAGE_LOCAL_ROOT")
	if root == "" {
		root = "data/objects"
	}
	return &LocalStore{
		Root:    root,
		BaseURL: util.GetEnv("STORAGE_PUBLIC_BASE"),
	}
}

func (l *LocalStore) path(key string) string {
	return filepath.Join(l.Root, filepath.FromSlash(key))
}

func (l *LocalStore) Read(key string) (io.ReadCloser, int64, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}

func (l *LocalStore) Write(key string, r io.Reader) error {
	p := l.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

func (l *LocalStore) Delete(key string) error {
	err := os.Remove(l.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (l *LocalStore) Exists(key string) (bool, error) {
	_, err := os.Stat(l.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *LocalStore) PublicURL(key string) string {
	if l.BaseURL != "" {
		return strings.TrimRight(l.BaseURL, "/") + "/" + key
	}
	return "/" + filepath.ToSlash(l.path(key))
}
