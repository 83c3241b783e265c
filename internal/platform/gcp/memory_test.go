package gcp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
)

func TestMemoryBucketServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBucketService("")
	key := "orgs/o1/claims/c1/reports/a1.pdf"

	if err := m.UploadFile(dbctx.Context{Ctx: ctx}, BucketCategoryReport, key, strings.NewReader("%PDF-1.4")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	attrs, err := m.GetObjectAttrs(ctx, BucketCategoryReport, key)
	if err != nil {
		t.Fatalf("GetObjectAttrs: %v", err)
	}
	if attrs.Size != 8 || attrs.ContentType != "application/pdf" {
		t.Fatalf("attrs: got size=%d ct=%q", attrs.Size, attrs.ContentType)
	}
	rc, err := m.DownloadFile(ctx, BucketCategoryReport, key)
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "%PDF-1.4" {
		t.Fatalf("body: want=%q got=%q", "%PDF-1.4", string(body))
	}
	if m.Has(BucketCategoryThumbnail, key) {
		t.Fatalf("categories must be isolated")
	}
	if got := m.GetPublicURL(BucketCategoryReport, key); got != "memory://objects/report/"+key {
		t.Fatalf("GetPublicURL: got=%q", got)
	}

	if err := m.DeleteFile(dbctx.Context{Ctx: ctx}, BucketCategoryReport, key); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if err := m.DeleteFile(dbctx.Context{Ctx: ctx}, BucketCategoryReport, key); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("DeleteFile missing: want ErrObjectNotFound got=%v", err)
	}
}

func TestMemoryBucketServiceDeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBucketService("http://cdn.local/")
	for _, k := range []string{"orgs/o1/a.pdf", "orgs/o1/b.pdf", "orgs/o2/c.pdf"} {
		if err := m.UploadFile(dbctx.Context{Ctx: ctx}, BucketCategoryReport, k, strings.NewReader("x")); err != nil {
			t.Fatalf("UploadFile(%s): %v", k, err)
		}
	}
	if err := m.DeletePrefix(ctx, BucketCategoryReport, "orgs/o1/"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	keys, _ := m.ListKeys(ctx, BucketCategoryReport, "orgs/")
	if len(keys) != 1 || keys[0] != "orgs/o2/c.pdf" {
		t.Fatalf("ListKeys after DeletePrefix: got=%v", keys)
	}
}

func TestMemoryBucketServiceFailUpload(t *testing.T) {
	m := NewMemoryBucketService("")
	m.FailUpload = errors.New("bucket unavailable")
	err := m.UploadFile(dbctx.Context{Ctx: context.Background()}, BucketCategoryReport, "k.pdf", strings.NewReader("x"))
	if err == nil || m.Len() != 0 {
		t.Fatalf("UploadFile: want error and no stored object, got err=%v len=%d", err, m.Len())
	}
}
