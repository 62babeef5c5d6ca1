package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fb-video-manager/domain/model"
)

// ScheduledPostRepositoryMSSQL implements the job store for SQL Server /
// Azure SQL using database/sql.
type ScheduledPostRepositoryMSSQL struct{ db *sql.DB }

func NewScheduledPostRepositoryMSSQL(db *sql.DB) *ScheduledPostRepositoryMSSQL {
	return &ScheduledPostRepositoryMSSQL{db: db}
}

// DB exposes the underlying *sql.DB
func (r *ScheduledPostRepositoryMSSQL) DB() *sql.DB { return r.db }

const scheduledPostColumnsMSSQL = `id, video_file_path, title, description, scheduled_time, status,
	facebook_video_id, facebook_url, error_message, retry_count, user_id, metadata, created_at, updated_at`

func (r *ScheduledPostRepositoryMSSQL) Create(ctx context.Context, post *model.ScheduledPost) (int64, error) {
	now := time.Now().Unix()
	meta, err := model.EncodeMetadata(post.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encoding metadata: %w", err)
	}
	var id int64
	q := `INSERT INTO dbo.[scheduled_posts]
		(video_file_path, title, description, scheduled_time, status, retry_count, user_id, metadata, created_at, updated_at)
		OUTPUT INSERTED.id
		VALUES (@p1, @p2, @p3, @p4, @p5, 0, @p6, @p7, @p8, @p8)`
	err = r.db.QueryRowContext(ctx, q,
		post.VideoFilePath, post.Title, post.Description, post.ScheduledTime,
		model.PostStatusPending, post.OwnerID, nullBytes(meta), now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating scheduled post: %w", err)
	}
	return id, nil
}

func (r *ScheduledPostRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+scheduledPostColumnsMSSQL+` FROM dbo.[scheduled_posts] WHERE id=@p1`, id)
	post, err := scanScheduledPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return post, err
}

func (r *ScheduledPostRepositoryMSSQL) List(ctx context.Context, filter model.ScheduledPostFilter) ([]*model.ScheduledPost, error) {
	q := `SELECT ` + scheduledPostColumnsMSSQL + ` FROM dbo.[scheduled_posts] WHERE 1=1`
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += fmt.Sprintf(" AND status=@p%d", len(args))
	}
	if filter.StartTime != 0 {
		args = append(args, filter.StartTime)
		q += fmt.Sprintf(" AND scheduled_time >= @p%d", len(args))
	}
	if filter.EndTime != 0 {
		args = append(args, filter.EndTime)
		q += fmt.Sprintf(" AND scheduled_time <= @p%d", len(args))
	}
	q += " ORDER BY scheduled_time ASC"
	return r.queryPosts(ctx, q, args...)
}

func (r *ScheduledPostRepositoryMSSQL) ListDue(ctx context.Context, now int64) ([]*model.ScheduledPost, error) {
	q := `SELECT ` + scheduledPostColumnsMSSQL + ` FROM dbo.[scheduled_posts]
		WHERE status=@p1 AND scheduled_time <= @p2 ORDER BY scheduled_time ASC`
	return r.queryPosts(ctx, q, model.PostStatusPending, now)
}

func (r *ScheduledPostRepositoryMSSQL) Update(ctx context.Context, id int64, patch model.ScheduledPostPatch) (bool, error) {
	sets, args, err := patchClausesMSSQL(patch)
	if err != nil {
		return false, err
	}
	if len(sets) == 0 {
		return false, nil
	}
	args = append(args, time.Now().Unix())
	sets = append(sets, fmt.Sprintf("updated_at=@p%d", len(args)))
	args = append(args, id)
	q := fmt.Sprintf("UPDATE dbo.[scheduled_posts] SET %s WHERE id=@p%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("updating scheduled post %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ScheduledPostRepositoryMSSQL) UpdateStatusIf(ctx context.Context, id int64, expect string, patch model.ScheduledPostPatch) (bool, error) {
	sets, args, err := patchClausesMSSQL(patch)
	if err != nil {
		return false, err
	}
	if len(sets) == 0 {
		return false, nil
	}
	args = append(args, time.Now().Unix())
	sets = append(sets, fmt.Sprintf("updated_at=@p%d", len(args)))
	args = append(args, id)
	idPos := len(args)
	args = append(args, expect)
	q := fmt.Sprintf("UPDATE dbo.[scheduled_posts] SET %s WHERE id=@p%d AND status=@p%d",
		strings.Join(sets, ", "), idPos, len(args))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("conditional update of scheduled post %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ScheduledPostRepositoryMSSQL) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[scheduled_posts] WHERE id=@p1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting scheduled post %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ScheduledPostRepositoryMSSQL) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dbo.[scheduled_posts] WHERE status=@p1`, status).Scan(&n)
	return n, err
}

func (r *ScheduledPostRepositoryMSSQL) ReclaimStuckProcessing(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dbo.[scheduled_posts] SET status=@p1, updated_at=@p2 WHERE status=@p3 AND updated_at < @p4`,
		model.PostStatusPending, time.Now().Unix(), model.PostStatusProcessing, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reclaiming stuck processing posts: %w", err)
	}
	return res.RowsAffected()
}

func (r *ScheduledPostRepositoryMSSQL) queryPosts(ctx context.Context, q string, args ...interface{}) ([]*model.ScheduledPost, error) {
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

func patchClausesMSSQL(patch model.ScheduledPostPatch) ([]string, []interface{}, error) {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=@p%d", col, len(args)))
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
