package handler

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// stageFile copies a multipart upload into a temp file so the uploader can
// work from a local path (multer-style staging).  The caller receives the
// path and a cleanup func removing the file.
func stageFile(fh *multipart.FileHeader) (string, func(), error) {
	src, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", nil, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", nil, err
	}
	path := dst.Name()
	return path, func() { os.Remove(path) }, nil
}

// uploadStaged stages a multipart file and pushes it to hosted storage,
// returning the public URL.
func (h *AuthHandler) uploadStaged(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	return uploadThrough(ctx, h.Uploader, fh)
}

func uploadThrough(ctx context.Context, up MediaUploader, fh *multipart.FileHeader) (string, error) {
	path, cleanup, err := stageFile(fh)
	if err != nil {
		return "", err
	}
	defer cleanup()
	return up.Upload(ctx, path)
}
