package gcp

import (
	"errors"
	"testing"
)

func setBucketEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REPORT_GCS_BUCKET_NAME", "claim-reports")
	t.Setenv("THUMBNAIL_GCS_BUCKET_NAME", "claim-thumbs")
}

func TestResolveObjectStorageConfigFromEnvDefaultGCS(t *testing.T) {
	setBucketEnv(t)
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
	if cfg.CompatibilityFallback {
		t.Fatalf("compatibility fallback: want=false got=true")
	}
	if cfg.ReportBucket != "claim-reports" || cfg.ThumbnailBucket != "claim-thumbs" {
		t.Fatalf("buckets: got report=%q thumbnail=%q", cfg.ReportBucket, cfg.ThumbnailBucket)
	}
}

func TestResolveObjectStorageConfigFromEnvCompatibilityFallback(t *testing.T) {
	setBucketEnv(t)
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCSEmulator, cfg.Mode)
	}
	if !cfg.CompatibilityFallback {
		t.Fatalf("compatibility fallback: want=true got=false")
	}
	if got := cfg.ModeSource(); got != "compatibility_fallback" {
		t.Fatalf("ModeSource: want=%q got=%q", "compatibility_fallback", got)
	}
}

func TestResolveObjectStorageConfigFromEnvMemoryNeedsNoBuckets(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "memory")
	t.Setenv("REPORT_GCS_BUCKET_NAME", "")
	t.Setenv("THUMBNAIL_GCS_BUCKET_NAME", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeMemory {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeMemory, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		emulator string
		buckets  bool
		wantCode ObjectStorageConfigErrorCode
	}{
		{name: "invalid mode", mode: "local", buckets: true, wantCode: ObjectStorageConfigErrorInvalidMode},
		{name: "missing emulator host", mode: "gcs_emulator", buckets: true, wantCode: ObjectStorageConfigErrorMissingEmulatorHost},
		{name: "invalid emulator host", mode: "gcs_emulator", emulator: "fake-gcs:4443", buckets: true, wantCode: ObjectStorageConfigErrorInvalidEmulatorHost},
		{name: "missing buckets", mode: "gcs", wantCode: ObjectStorageConfigErrorMissingBucket},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.emulator)
			if tc.buckets {
				setBucketEnv(t)
			} else {
				t.Setenv("REPORT_GCS_BUCKET_NAME", "")
				t.Setenv("THUMBNAIL_GCS_BUCKET_NAME", "")
			}
			_, err := ResolveObjectStorageConfigFromEnv()
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("ResolveObjectStorageConfigFromEnv: want ObjectStorageConfigError got=%v", err)
			}
			if cfgErr.Code != tc.wantCode {
				t.Fatalf("code: want=%q got=%q", tc.wantCode, cfgErr.Code)
			}
		})
	}
}
