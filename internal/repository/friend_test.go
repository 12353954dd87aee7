package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"messenger/internal/models"
	"messenger/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestFriendRepository_RequestLifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFriendRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")

	req := &models.FriendRequest{SenderID: alice.ID, RecipientID: bob.ID}
	require.NoError(t, repo.CreateRequest(ctx, req))
	assert.Equal(t, alice.ID, req.PairLow)
	assert.Equal(t, bob.ID, req.PairHigh)

	t.Run("Reverse request hits the pair index", func(t *testing.T) {
		err := repo.CreateRequest(ctx, &models.FriendRequest{SenderID: bob.ID, RecipientID: alice.ID})
		assert.ErrorIs(t, err, ErrDuplicateRequest)

		var count int64
		db.Model(&models.FriendRequest{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Lists carry the counterpart", func(t *testing.T) {
		received, err := repo.ListReceived(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, received, 1)
		assert.Equal(t, "alice", received[0].Sender.Username)

		sent, err := repo.ListSent(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, sent, 1)
		assert.Equal(t, "bobby", sent[0].Recipient.Username)

		pending, err := repo.FindPendingBetween(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, pending)
		assert.Equal(t, req.ID, pending.ID)
	})

	t.Run("Accept writes both edges and consumes the request", func(t *testing.T) {
		require.NoError(t, repo.AcceptRequest(ctx, req.ID))

		ab, err := repo.AreFriends(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		ba, err := repo.AreFriends(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, ab)
		assert.True(t, ba)

		_, err = repo.GetRequest(ctx, req.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))

		err = repo.AcceptRequest(ctx, req.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})

	t.Run("ListFriends and RemoveFriendship", func(t *testing.T) {
		friends, err := repo.ListFriends(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, bob.ID, friends[0].ID)

		require.NoError(t, repo.RemoveFriendship(ctx, bob.ID, alice.ID))

		var edges int64
		db.Model(&models.Friendship{}).Count(&edges)
		assert.Zero(t, edges)

		err = repo.RemoveFriendship(ctx, alice.ID, bob.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}

func TestFriendRepository_DeleteRequest(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFriendRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")
	req := &models.FriendRequest{SenderID: alice.ID, RecipientID: bob.ID}
	require.NoError(t, repo.CreateRequest(ctx, req))

	require.NoError(t, repo.DeleteRequest(ctx, req.ID))
	err := repo.DeleteRequest(ctx, req.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	// the pair is free again
	require.NoError(t, repo.CreateRequest(ctx, &models.FriendRequest{SenderID: bob.ID, RecipientID: alice.ID}))
}

func TestFriendRepository_CreateRequestRechecksFriendship(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFriendRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")
	// edges committed by an accept that finished after the caller's own checks
	require.NoError(t, db.Create(&[]models.Friendship{
		{UserID: alice.ID, FriendID: bob.ID},
		{UserID: bob.ID, FriendID: alice.ID},
	}).Error)

	err := repo.CreateRequest(ctx, &models.FriendRequest{SenderID: alice.ID, RecipientID: bob.ID})
	assert.ErrorIs(t, err, ErrAlreadyFriends)

	var count int64
	db.Model(&models.FriendRequest{}).Count(&count)
	assert.Zero(t, count)
}

func TestFriendRepository_AcceptRollsBackOnEdgeFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "pair_low", "pair_high", "created_at"}).
		AddRow(9, 1, 2, 1, 2, time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "friend_requests" .* FOR UPDATE`).WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "user_friends"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "user_friends"`)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err = NewFriendRepository(db).AcceptRequest(context.Background(), 9)
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}
