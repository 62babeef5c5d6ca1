package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fb-video-manager/domain/model"
)

const scheduledPostColumns = `id, video_file_path, title, description, scheduled_time, status,
	facebook_video_id, facebook_url, error_message, retry_count, user_id, metadata, created_at, updated_at`

// ScheduledPostRepository implements the job store on PostgreSQL.
type ScheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) *ScheduledPostRepository {
	return &ScheduledPostRepository{db: db}
}

func (r *ScheduledPostRepository) Create(ctx context.Context, post *model.ScheduledPost) (int64, error) {
	now := time.Now().Unix()
	meta, err := model.EncodeMetadata(post.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encoding metadata: %w", err)
	}
	var id int64
	q := `INSERT INTO scheduled_posts
		(video_file_path, title, description, scheduled_time, status, retry_count, user_id, metadata, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,0,$6,$7,$8,$8) RETURNING id`
	err = r.db.QueryRowContext(ctx, q,
		post.VideoFilePath, post.Title, post.Description, post.ScheduledTime,
		model.PostStatusPending, post.OwnerID, nullBytes(meta), now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating scheduled post: %w", err)
	}
	return id, nil
}

func (r *ScheduledPostRepository) GetByID(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+scheduledPostColumns+` FROM scheduled_posts WHERE id=$1`, id)
	post, err := scanScheduledPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return post, err
}

func (r *ScheduledPostRepository) List(ctx context.Context, filter model.ScheduledPostFilter) ([]*model.ScheduledPost, error) {
	q := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE 1=1`
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if filter.StartTime != 0 {
		args = append(args, filter.StartTime)
		q += fmt.Sprintf(" AND scheduled_time >= $%d", len(args))
	}
	if filter.EndTime != 0 {
		args = append(args, filter.EndTime)
		q += fmt.Sprintf(" AND scheduled_time <= $%d", len(args))
	}
	q += " ORDER BY scheduled_time ASC"
	return r.queryPosts(ctx, q, args...)
}

func (r *ScheduledPostRepository) ListDue(ctx context.Context, now int64) ([]*model.ScheduledPost, error) {
	q := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts
		WHERE status=$1 AND scheduled_time <= $2 ORDER BY scheduled_time ASC`
	return r.queryPosts(ctx, q, model.PostStatusPending, now)
}

func (r *ScheduledPostRepository) Update(ctx context.Context, id int64, patch model.ScheduledPostPatch) (bool, error) {
	sets, args, err := patchClauses(patch)
	if err != nil {
		return false, err
	}
	if len(sets) == 0 {
		return false, nil
	}
	args = append(args, time.Now().Unix())
	sets = append(sets, fmt.Sprintf("updated_at=$%d", len(args)))
	args = append(args, id)
	q := fmt.Sprintf("UPDATE scheduled_posts SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("updating scheduled post %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ScheduledPostRepository) UpdateStatusIf(ctx context.Context, id int64, expect string, patch model.ScheduledPostPatch) (bool, error) {
	sets, args, err := patchClauses(patch)
	if err != nil {
		return false, err
	}
	if len(sets) == 0 {
		return false, nil
	}
	args = append(args, time.Now().Unix())
	sets = append(sets, fmt.Sprintf("updated_at=$%d", len(args)))
	args = append(args, id)
	idPos := len(args)
	args = append(args, expect)
	q := fmt.Sprintf("UPDATE scheduled_posts SET %s WHERE id=$%d AND status=$%d",
		strings.Join(sets, ", "), idPos, len(args))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("conditional update of scheduled post %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ScheduledPostRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_posts WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting scheduled post %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ScheduledPostRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scheduled_posts WHERE status=$1`, status).Scan(&n)
	return n, err
}

func (r *ScheduledPostRepository) ReclaimStuckProcessing(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET status=$1, updated_at=$2 WHERE status=$3 AND updated_at < $4`,
		model.PostStatusPending, time.Now().Unix(), model.PostStatusProcessing, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reclaiming stuck processing posts: %w", err)
	}
	return res.RowsAffected()
}

func (r *ScheduledPostRepository) queryPosts(ctx context.Context, q string, args ...interface{}) ([]*model.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled posts: %w", err)
	}
	defer rows.Close()
	var posts []*model.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScheduledPost(row rowScanner) (*model.ScheduledPost, error) {
	p := &model.ScheduledPost{}
	var desc, videoID, fbURL, errMsg, owner sql.NullString
	var meta []byte
	err := row.Scan(&p.ID, &p.VideoFilePath, &p.Title, &desc, &p.ScheduledTime, &p.Status,
		&videoID, &fbURL, &errMsg, &p.RetryCount, &owner, &meta, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		p.Description = desc.String
	}
	if videoID.Valid {
		v := videoID.String
		p.RemoteVideoID = &v
	}
	if fbURL.Valid {
		v := fbURL.String
		p.RemoteURL = &v
	}
	if errMsg.Valid {
		v := errMsg.String
		p.ErrorMessage = &v
	}
	if owner.Valid {
		v := owner.String
		p.OwnerID = &v
	}
	m, err := model.DecodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("decoding metadata for post %d: %w", p.ID, err)
	}
	p.Metadata = m
	return p, nil
}

// patchClauses renders the non-nil patch fields as SET clauses. Positions
// continue from the returned args slice.
func patchClauses(patch model.ScheduledPostPatch) ([]string, []interface{}, error) {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.ScheduledTime != nil {
		add("scheduled_time", *patch.ScheduledTime)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.RemoteVideoID != nil {
		add("facebook_video_id", *patch.RemoteVideoID)
	}
	if patch.RemoteURL != nil {
		add("facebook_url", *patch.RemoteURL)
	}
	if patch.ErrorMessage != nil {
		add("error_message", *patch.ErrorMessage)
	}
	if patch.RetryCount != nil {
		add("retry_count", *patch.RetryCount)
	}
	if patch.OwnerID != nil {
		add("user_id", *patch.OwnerID)
	}
	if patch.Metadata != nil {
		meta, err := model.EncodeMetadata(*patch.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding metadata: %w", err)
		}
		add("metadata", nullBytes(meta))
	}
	return sets, args, nil
}

func nullBytes(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return b
}
