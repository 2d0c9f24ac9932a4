package incapacity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type Document struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	FileSize    int64     `json:"fileSize"`
	StoredPath  string    `json:"-"`
	Encrypted   bool      `json:"-"`
	UploadedBy  string    `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

var ErrDocumentNotFound = errors.New("document not found")

func (s *Store) CreateDocument(ctx context.Context, doc Document) (string, error) {
	var id string
	var uploadedBy any
	if doc.UploadedBy != "" {
		uploadedBy = doc.UploadedBy
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO documents (file_name, content_type, file_size, stored_path, encrypted, uploaded_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, doc.FileName, doc.ContentType, doc.FileSize, doc.StoredPath, doc.Encrypted, uploadedBy).Scan(&id)
	return id, err
}

func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	var doc Document
	var uploadedBy *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, file_name, content_type, file_size, stored_path, encrypted, uploaded_by, created_at
    FROM documents
    WHERE id = $1
  `, id).Scan(&doc.ID, &doc.FileName, &doc.ContentType, &doc.FileSize, &doc.StoredPath, &doc.Encrypted, &uploadedBy, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrDocumentNotFound
	}
	if err != nil {
		return Document{}, err
	}
	if uploadedBy != nil {
		doc.UploadedBy = *uploadedBy
	}
	return doc, nil
}
