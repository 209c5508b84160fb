package config

// StorageConfig locates the S3-compatible bucket that holds show posters.
// Endpoint is set for MinIO or other non-AWS providers, in which case
// path-style addressing is usually required.
type StorageConfig struct {
	Enabled        bool
	Bucket         string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	UsePathStyle   bool
	PublicBaseURL  string // prefix used to build poster URLs; empty keeps object keys
	KeyPrefix      string
	MaxUploadBytes int64
	MaxDimension   int // longest poster edge after normalisation, in pixels
	Quality        int // webp quality, 1-100
}

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Enabled:        envBool("STORAGE_ENABLED", false),
		Bucket:         envStr("STORAGE_BUCKET", "band-posters"),
		Region:         envStr("STORAGE_REGION", "us-east-1"),
		Endpoint:       envStr("STORAGE_ENDPOINT", ""),
		AccessKey:      envStr("STORAGE_ACCESS_KEY", ""),
		SecretKey:      envStr("STORAGE_SECRET_KEY", ""),
		UsePathStyle:   envBool("STORAGE_PATH_STYLE", false),
		PublicBaseURL:  envStr("STORAGE_PUBLIC_BASE_URL", ""),
		KeyPrefix:      envStr("STORAGE_KEY_PREFIX", "posters"),
		MaxUploadBytes: envInt64("STORAGE_MAX_UPLOAD_BYTES", 10<<20),
		MaxDimension:   envInt("STORAGE_MAX_DIMENSION", 1600),
		Quality:        envInt("STORAGE_WEBP_QUALITY", 85),
	}
}
