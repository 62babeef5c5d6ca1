package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fb-video-manager/domain/model"
)

const downloadedFileColumns = `id, file_path, original_url, title, description, file_size, duration,
	thumbnail_path, download_date, upload_status, facebook_video_id, facebook_url, tags, category, metadata`

// DownloadedFileRepository owns the library of extracted media artifacts.
type DownloadedFileRepository struct {
	db *sql.DB
}

func NewDownloadedFileRepository(db *sql.DB) *DownloadedFileRepository {
	return &DownloadedFileRepository{db: db}
}

func (r *DownloadedFileRepository) Create(ctx context.Context, file *model.DownloadedFile) (int64, error) {
	meta, err := model.EncodeMetadata(file.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encoding metadata: %w", err)
	}
	now := time.Now().Unix()
	var id int64
	q := `INSERT INTO downloaded_files
		(file_path, original_url, title, description, file_size, duration, thumbnail_path, download_date, upload_status, tags, category, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (file_path) DO UPDATE SET
			original_url=EXCLUDED.original_url,
			title=EXCLUDED.title,
			description=EXCLUDED.description,
			file_size=EXCLUDED.file_size,
			duration=EXCLUDED.duration,
			thumbnail_path=EXCLUDED.thumbnail_path,
			download_date=EXCLUDED.download_date,
			metadata=EXCLUDED.metadata
		RETURNING id`
	err = r.db.QueryRowContext(ctx, q,
		file.FilePath, file.OriginalURL, file.Title, file.Description, file.FileSize,
		file.Duration, file.ThumbnailPath, now, model.UploadStatusNotUploaded,
		file.Tags, file.Category, nullBytes(meta),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("recording downloaded file: %w", err)
	}
	return id, nil
}

func (r *DownloadedFileRepository) GetByPath(ctx context.Context, filePath string) (*model.DownloadedFile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+downloadedFileColumns+` FROM downloaded_files WHERE file_path=$1`, filePath)
	f, err := scanDownloadedFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func (r *DownloadedFileRepository) List(ctx context.Context, filter model.DownloadedFileFilter) ([]*model.DownloadedFile, error) {
	q := `SELECT ` + downloadedFileColumns + ` FROM downloaded_files WHERE 1=1`
	args := []interface{}{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		q += fmt.Sprintf(" AND category=$%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += fmt.Sprintf(" AND upload_status=$%d", len(args))
	}
	q += " ORDER BY download_date DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing downloaded files: %w", err)
	}
	defer rows.Close()
	var files []*model.DownloadedFile
	for rows.Next() {
		f, err := scanDownloadedFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *DownloadedFileRepository) UpdateUploadStatus(ctx context.Context, filePath, status string, remoteVideoID, remoteURL *string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE downloaded_files SET upload_status=$1, facebook_video_id=$2, facebook_url=$3 WHERE file_path=$4`,
		status, remoteVideoID, remoteURL, filePath)
	if err != nil {
		return false, fmt.Errorf("updating upload status: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *DownloadedFileRepository) AddUploadHistory(ctx context.Context, entry *model.UploadHistoryEntry) error {
	if entry.StartedAt == 0 {
		entry.StartedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO upload_history (file_id, upload_type, status, started_at, completed_at, error_message, facebook_video_id, facebook_url)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		entry.FileID, entry.UploadType, entry.Status, entry.StartedAt,
		entry.CompletedAt, entry.ErrorMessage, entry.RemoteVideoID, entry.RemoteURL)
	if err != nil {
		return fmt.Errorf("recording upload history: %w", err)
	}
	return nil
}

func scanDownloadedFile(row rowScanner) (*model.DownloadedFile, error) {
	f := &model.DownloadedFile{}
	var title, desc, thumb, videoID, fbURL, tags, category sql.NullString
	var size, duration sql.NullInt64
	var meta []byte
	err := row.Scan(&f.ID, &f.FilePath, &f.OriginalURL, &title, &desc, &size, &duration,
		&thumb, &f.DownloadDate, &f.UploadStatus, &videoID, &fbURL, &tags, &category, &meta)
	if err != nil {
		return nil, err
	}
	if title.Valid {
		v := title.String
		f.Title = &v
	}
	if desc.Valid {
		v := desc.String
		f.Description = &v
	}
	if size.Valid {
		v := size.Int64
		f.FileSize = &v
	}
	if duration.Valid {
		v := duration.Int64
		f.Duration = &v
	}
	if thumb.Valid {
		v := thumb.String
		f.ThumbnailPath = &v
	}
	if videoID.Valid {
		v := videoID.String
		f.RemoteVideoID = &v
	}
	if fbURL.Valid {
		v := fbURL.String
		f.RemoteURL = &v
	}
	if tags.Valid {
		v := tags.String
		f.Tags = &v
	}
	if category.Valid {
		v := category.String
		f.Category = &v
	}
	m, err := model.DecodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("decoding metadata for file %d: %w", f.ID, err)
	}
	f.Metadata = m
	return f, nil
}
