package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"primeur_back_end/internal/database"
)

// UploadProductImage envoie une image produit dans le bucket et retourne son URL
func UploadProductImage(file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	objectName := fmt.Sprintf("products/%s%s", uuid.NewString(), filepath.Ext(file.Filename))

	_, err = database.MinIO.PutObject(context.Background(), bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	imageURL := fmt.Sprintf("http://%s/%s/%s", os.Getenv("MINIO_ENDPOINT"), bucket, objectName)
	return imageURL, nil
}

// GenerateSignedURL génère une URL signée avec expiration pour un objet du bucket
func GenerateSignedURL(ctx context.Context, objectPath string, duration time.Duration) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	prefix := fmt.Sprintf("http://%s/%s/", os.Getenv("MINIO_ENDPOINT"), bucket)

	// Ne garder que le chemin relatif au bucket
	key := strings.TrimPrefix(objectPath, prefix)

	reqParams := make(url.Values)
	presignedURL, err := database.MinIO.PresignedGetObject(ctx, bucket, key, duration, reqParams)
	if err != nil {
		return "", err
	}

	return presignedURL.String(), nil
}
