// Package services regroupe les collaborateurs d'archivage : MinIO conserve
// une copie de chaque facture PDF émise.
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/Elisee98/markethub-sub001/internal/database"
)

// ArchiveInvoicePDF dépose la facture PDF dans le bucket d'archives sous
// invoices/<numéro>.pdf et retourne le chemin objet.
func ArchiveInvoicePDF(ctx context.Context, orderNumber string, pdf []byte) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	objectName := fmt.Sprintf("invoices/%s.pdf", orderNumber)

	_, err := database.MinIO.PutObject(ctx, bucket, objectName,
		bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", err
	}

	return objectName, nil
}

// InvoiceDownloadURL génère une URL signée temporaire vers une facture archivée.
func InvoiceDownloadURL(ctx context.Context, orderNumber string, duration time.Duration) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	objectName := fmt.Sprintf("invoices/%s.pdf", orderNumber)

	presignedURL, err := database.MinIO.PresignedGetObject(ctx, bucket, objectName,
		duration, make(url.Values))
	if err != nil {
		return "", err
	}

	return presignedURL.String(), nil
}
