package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"fb-video-manager/domain/model"
)

func scheduledPostRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "video_file_path", "title", "description", "scheduled_time", "status",
		"facebook_video_id", "facebook_url", "error_message", "retry_count", "user_id",
		"metadata", "created_at", "updated_at",
	})
}

func TestScheduledPostRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO scheduled_posts`)).
		WithArgs("/videos/clip.mp4", "My Clip", "desc", int64(1767225600), model.PostStatusPending, nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := repository.Create(context.Background(), &model.ScheduledPost{
		VideoFilePath: "/videos/clip.mp4",
		Title:         "My Clip",
		Description:   "desc",
		ScheduledTime: 1767225600,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+scheduledPostColumns+` FROM scheduled_posts WHERE id=$1`)).
		WithArgs(int64(3)).
		WillReturnRows(scheduledPostRows().AddRow(
			3, "/videos/clip.mp4", "My Clip", "desc", 1767225600, model.PostStatusPending,
			nil, nil, nil, 0, "owner-1", []byte(`{"remote_video_id":"99"}`), 1767000000, 1767000000,
		))

	post, err := repository.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, post)
	require.Equal(t, int64(3), post.ID)
	require.Equal(t, "My Clip", post.Title)
	require.Equal(t, model.PostStatusPending, post.Status)
	require.NotNil(t, post.OwnerID)
	require.Equal(t, "owner-1", *post.OwnerID)
	require.Equal(t, "99", post.RemoteID())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+scheduledPostColumns+` FROM scheduled_posts WHERE id=$1`)).
		WithArgs(int64(404)).
		WillReturnRows(scheduledPostRows())

	post, err := repository.GetByID(context.Background(), 404)
	require.NoError(t, err)
	require.Nil(t, post)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_ListDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status=$1 AND scheduled_time <= $2 ORDER BY scheduled_time ASC`)).
		WithArgs(model.PostStatusPending, int64(1767225600)).
		WillReturnRows(scheduledPostRows().
			AddRow(1, "/videos/a.mp4", "A", nil, 1767225000, model.PostStatusPending, nil, nil, nil, 0, nil, nil, 1767000000, 1767000000).
			AddRow(2, "/videos/b.mp4", "B", nil, 1767225500, model.PostStatusPending, nil, nil, nil, 1, nil, nil, 1767000000, 1767000000))

	due, err := repository.ListDue(context.Background(), 1767225600)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, int64(1), due[0].ID)
	require.Equal(t, 1, due[1].RetryCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_List_WithFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE 1=1 AND status=$1 AND scheduled_time >= $2 ORDER BY scheduled_time ASC`)).
		WithArgs(model.PostStatusPending, int64(1767225600)).
		WillReturnRows(scheduledPostRows())

	posts, err := repository.List(context.Background(), model.ScheduledPostFilter{
		Status:    model.PostStatusPending,
		StartTime: 1767225600,
	})
	require.NoError(t, err)
	require.Empty(t, posts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	title := "Renamed"
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE scheduled_posts SET title=$1, updated_at=$2 WHERE id=$3`)).
		WithArgs(title, sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repository.Update(context.Background(), 5, model.ScheduledPostPatch{Title: &title})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_Update_EmptyPatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	ok, err := repository.Update(context.Background(), 5, model.ScheduledPostPatch{})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_UpdateStatusIf(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	status := model.PostStatusPublished
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE scheduled_posts SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`)).
		WithArgs(status, sqlmock.AnyArg(), int64(5), model.PostStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repository.UpdateStatusIf(context.Background(), 5, model.PostStatusProcessing,
		model.ScheduledPostPatch{Status: &status})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_UpdateStatusIf_LostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	status := model.PostStatusProcessing
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE scheduled_posts SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`)).
		WithArgs(status, sqlmock.AnyArg(), int64(5), model.PostStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repository.UpdateStatusIf(context.Background(), 5, model.PostStatusPending,
		model.ScheduledPostPatch{Status: &status})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM scheduled_posts WHERE id=$1`)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repository.Delete(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_ReclaimStuckProcessing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE scheduled_posts SET status=$1, updated_at=$2 WHERE status=$3 AND updated_at < $4`)).
		WithArgs(model.PostStatusPending, sqlmock.AnyArg(), model.PostStatusProcessing, int64(1767224700)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repository.ReclaimStuckProcessing(context.Background(), 1767224700)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledPostRepository_CountByStatus_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewScheduledPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM scheduled_posts WHERE status=$1`)).
		WithArgs(model.PostStatusPending).
		WillReturnError(fmt.Errorf("connection reset"))

	_, err = repository.CountByStatus(context.Background(), model.PostStatusPending)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
