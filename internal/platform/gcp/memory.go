package gcp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
)

type memoryObject struct {
	data  []byte
	attrs ObjectAttrs
}

// MemoryBucketService is an in-process BucketService.
type MemoryBucketService struct {
	mu            sync.RWMutex
	objects       map[string]memoryObject
	publicBaseURL string

	// FailUpload, when set, is returned by every UploadFile call.
	FailUpload error
}

func NewMemoryBucketService(publicBaseURL string) *MemoryBucketService {
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		base = "memory://objects"
	}
	return &MemoryBucketService{
		objects:       map[string]memoryObject{},
		publicBaseURL: base,
	}
}

func memKey(category BucketCategory, key string) string {
	return string(category) + "/" + strings.TrimLeft(key, "/")
}

func (m *MemoryBucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	if m.FailUpload != nil {
		return m.FailUpload
	}
	if dbc.Ctx != nil {
		if err := dbc.Ctx.Err(); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	sum := md5.Sum(data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[memKey(category, key)] = memoryObject{
		data: data,
		attrs: ObjectAttrs{
			Size:        int64(len(data)),
			ContentType: contentTypeForKey(key),
			Updated:     time.Now().UTC(),
			ETag:        hex.EncodeToString(sum[:]),
		},
	}
	return nil
}

func (m *MemoryBucketService) DeleteFile(_ dbctx.Context, category BucketCategory, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(category, key)
	if _, ok := m.objects[k]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, k)
	return nil
}

func (m *MemoryBucketService) DownloadFile(_ context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[memKey(category, key)]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryBucketService) GetObjectAttrs(_ context.Context, category BucketCategory, key string) (*ObjectAttrs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[memKey(category, key)]
	if !ok {
		return nil, ErrObjectNotFound
	}
	attrs := obj.attrs
	return &attrs, nil
}

func (m *MemoryBucketService) ListKeys(_ context.Context, category BucketCategory, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	head := string(category) + "/"
	out := []string{}
	for k := range m.objects {
		if !strings.HasPrefix(k, head) {
			continue
		}
		name := strings.TrimPrefix(k, head)
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryBucketService) DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error {
	keys, err := m.ListKeys(ctx, category, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		_ = m.DeleteFile(dbctx.Context{Ctx: ctx}, category, k)
	}
	return nil
}

func (m *MemoryBucketService) GetPublicURL(category BucketCategory, key string) string {
	return fmt.Sprintf("%s/%s/%s", m.publicBaseURL, category, strings.TrimLeft(strings.TrimSpace(key), "/"))
}

// Has reports whether key exists in category.
func (m *MemoryBucketService) Has(category BucketCategory, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[memKey(category, key)]
	return ok
}

// Len is the number of stored objects across categories.
func (m *MemoryBucketService) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
