package config

// StorageConfig carries the object storage settings for media uploads
// (avatars and cover images).  The service targets any S3-compatible
// endpoint; in development that is usually a local MinIO container.
type StorageConfig struct {
    Region    string // bucket region (required by the SDK even for MinIO)
    Endpoint  string // base endpoint, e.g. http://localhost:9000
    Bucket    string // bucket receiving uploaded media
    AccessKey string // access key id / MINIO_ROOT_USER
    SecretKey string // secret access key / MINIO_ROOT_PASSWORD
    PublicURL string // public base URL prefix for stored objects
}

// LoadStorageConfig reads the storage settings.  All values are required:
// registration cannot complete without a working uploader, so a missing
// variable is a fatal misconfiguration rather than a runtime error.
func LoadStorageConfig() StorageConfig {
    return StorageConfig{
        Region:    must("S3_REGION"),
        Endpoint:  must("S3_ENDPOINT"),
        Bucket:    must("S3_BUCKET"),
        AccessKey: must("S3_ACCESS_KEY"),
        SecretKey: must("S3_SECRET_KEY"),
        PublicURL: must("S3_PUBLIC_URL"),
    }
}
