package repository

import (
	"context"
	"testing"
	"time"

	"messenger/internal/models"
	"messenger/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRoom(t *testing.T, repo RoomRepository, kind models.RoomKind, pairKey *string, members ...*models.User) *models.MessageRoom {
	t.Helper()
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	room := &models.MessageRoom{Name: "room", Kind: kind, PairKey: pairKey}
	require.NoError(t, repo.Create(context.Background(), room, ids))
	return room
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, roomID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where("room_id = ?", roomID).Count(&n).Error)
	return n
}

func TestRoomRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	carol := testutil.CreateUser(t, db, "carol")
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")

	room := newRoom(t, repo, models.RoomKindGroup, nil, carol, alice, bob)

	got, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{carol.ID, alice.ID, bob.ID}, got.MemberIDs())
	assert.Equal(t, "alice", got.Members[1].User.Username)

	_, err = repo.GetByID(ctx, room.ID+100)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestRoomRepository_DuplicatePrivatePair(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")
	key := models.PrivatePairKey(alice.ID, bob.ID)

	newRoom(t, repo, models.RoomKindPrivate, &key, alice, bob)

	found, err := repo.FindByPairKey(ctx, models.PrivatePairKey(bob.ID, alice.ID))
	require.NoError(t, err)
	require.NotNil(t, found)

	again := key
	err = repo.Create(ctx, &models.MessageRoom{Kind: models.RoomKindPrivate, PairKey: &again}, []uint{bob.ID, alice.ID})
	assert.True(t, models.HasCode(err, models.CodeDuplicateRoom))

	var rooms int64
	db.Model(&models.MessageRoom{}).Count(&rooms)
	assert.Equal(t, int64(1), rooms)
}

func TestRoomRepository_AddMembers(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")
	carol := testutil.CreateUser(t, db, "carol")
	key := models.PrivatePairKey(alice.ID, bob.ID)
	room := newRoom(t, repo, models.RoomKindPrivate, &key, alice, bob)

	err := repo.AddMembers(ctx, room.ID, []uint{bob.ID})
	assert.True(t, models.HasCode(err, models.CodeAlreadyMember))

	require.NoError(t, repo.AddMembers(ctx, room.ID, []uint{carol.ID}))
	got, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID, bob.ID, carol.ID}, got.MemberIDs())
	assert.Equal(t, models.RoomKindPrivate, got.Kind)
	assert.Nil(t, got.PairKey)

	err = repo.AddMembers(ctx, 999, []uint{carol.ID})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestRoomRepository_RemoveMember(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	msgs := NewMessageRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")
	carol := testutil.CreateUser(t, db, "carol")
	dave := testutil.CreateUser(t, db, "david")

	t.Run("Leaves N-1 members when at least two remain", func(t *testing.T) {
		room := newRoom(t, repo, models.RoomKindGroup, nil, alice, bob, carol)
		dissolved, err := repo.RemoveMember(ctx, room.ID, carol.ID)
		require.NoError(t, err)
		assert.False(t, dissolved)
		assert.Equal(t, int64(2), countRows(t, db, &models.RoomMember{}, room.ID))

		_, err = repo.RemoveMember(ctx, room.ID, dave.ID)
		assert.True(t, models.HasCode(err, models.CodeNotMember))
	})

	t.Run("Dissolves when one member would remain", func(t *testing.T) {
		room := newRoom(t, repo, models.RoomKindGroup, nil, alice, dave)
		require.NoError(t, msgs.Create(ctx, &models.Message{RoomID: room.ID, AuthorID: alice.ID, Text: "hi"}))
		require.NoError(t, msgs.Create(ctx, &models.Message{RoomID: room.ID, AuthorID: dave.ID, Text: "yo"}))

		dissolved, err := repo.RemoveMember(ctx, room.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, dissolved)

		assert.Zero(t, countRows(t, db, &models.RoomMember{}, room.ID))
		assert.Zero(t, countRows(t, db, &models.Message{}, room.ID))
		_, err = repo.GetByID(ctx, room.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})

	t.Run("Unknown room", func(t *testing.T) {
		_, err := repo.RemoveMember(ctx, 999, alice.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}

func TestRoomRepository_ListAndLastMessages(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	msgs := NewMessageRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")
	carol := testutil.CreateUser(t, db, "carol")

	first := newRoom(t, repo, models.RoomKindGroup, nil, alice, bob, carol)
	second := newRoom(t, repo, models.RoomKindGroup, nil, alice, carol, bob)
	newRoom(t, repo, models.RoomKindGroup, nil, bob, carol, testutil.CreateUser(t, db, "david"))

	require.NoError(t, msgs.Create(ctx, &models.Message{RoomID: first.ID, AuthorID: bob.ID, Text: "one"}))
	require.NoError(t, msgs.Create(ctx, &models.Message{RoomID: first.ID, AuthorID: alice.ID, Text: "two"}))

	rooms, err := repo.ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	last, err := repo.LastMessages(ctx, []uint{first.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, "two", last[first.ID].Text)
	_, ok := last[second.ID]
	assert.False(t, ok)
}

func TestRoomRepository_LastMessageFollowsCreatedAt(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	msgs := NewMessageRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")
	room := newRoom(t, repo, models.RoomKindPrivate, nil, alice, bob)

	now := time.Now().UTC()
	require.NoError(t, msgs.Create(ctx, &models.Message{RoomID: room.ID, AuthorID: alice.ID, Text: "newest", CreatedAt: now}))
	// inserted later but stamped earlier, as a skewed clock would
	require.NoError(t, msgs.Create(ctx, &models.Message{RoomID: room.ID, AuthorID: bob.ID, Text: "older", CreatedAt: now.Add(-time.Hour)}))

	last, err := repo.LastMessages(ctx, []uint{room.ID})
	require.NoError(t, err)
	assert.Equal(t, "newest", last[room.ID].Text)

	history, err := msgs.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, history[len(history)-1].ID, last[room.ID].ID)
}

func TestRoomRepository_Rename(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bobby")
	room := newRoom(t, repo, models.RoomKindGroup, nil, alice, bob)

	require.NoError(t, repo.Rename(ctx, room.ID, "weekend plans"))
	got, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "weekend plans", got.Name)

	err = repo.Rename(ctx, 999, "x")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
