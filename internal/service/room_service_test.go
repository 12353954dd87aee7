package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"messenger/internal/models"
	"messenger/internal/repository"
	"messenger/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type roomFixture struct {
	db       *gorm.DB
	rooms    *RoomService
	messages *MessageService
	users    map[string]*models.User
}

func newRoomFixture(t *testing.T, usernames ...string) *roomFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	roomRepo := repository.NewRoomRepository(db)
	f := &roomFixture{
		db:       db,
		rooms:    NewRoomService(roomRepo, repository.NewUserRepository(db)),
		messages: NewMessageService(repository.NewMessageRepository(db), roomRepo),
		users:    make(map[string]*models.User),
	}
	for _, name := range usernames {
		f.users[name] = testutil.CreateUser(t, db, name)
	}
	return f
}

func (f *roomFixture) id(name string) uint {
	return f.users[name].ID
}

func (f *roomFixture) count(t *testing.T, model any, roomID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where("room_id = ?", roomID).Count(&n).Error)
	return n
}

func usernames(users []models.PublicUser) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func TestRoomServiceCreatePrivateRoomOncePerPair(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob")
	ctx := context.Background()

	room, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob", "bob", "alice"})
	require.NoError(t, err)
	assert.Equal(t, models.RoomKindPrivate, room.Kind)
	assert.Equal(t, []string{"alice", "bob"}, usernames(room.Users))

	_, err = f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	assert.Equal(t, models.CodeDuplicateRoom, appErrCode(err))

	_, err = f.rooms.CreateRoom(ctx, f.id("bob"), []string{"alice"})
	assert.Equal(t, models.CodeDuplicateRoom, appErrCode(err))
	assert.Equal(t, 409, models.StatusFor(err))
}

func TestRoomServiceCreateValidation(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob")
	ctx := context.Background()

	_, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"alice", " "})
	assert.Equal(t, models.CodeValidation, appErrCode(err))

	_, err = f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob", "ghost"})
	assert.Equal(t, models.CodeNotFound, appErrCode(err))

	var n int64
	require.NoError(t, f.db.Model(&models.MessageRoom{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRoomServiceGroupRoom(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob", "carol")
	ctx := context.Background()

	room, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob", "carol"})
	require.NoError(t, err)
	assert.Equal(t, models.RoomKindGroup, room.Kind)

	got, err := f.rooms.GetRoom(ctx, room.ID, f.id("carol"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, usernames(got.Users))
}

func TestRoomServiceGetRoomRequiresMembership(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob", "mallory")
	ctx := context.Background()
	room, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	require.NoError(t, err)

	_, err = f.rooms.GetRoom(ctx, room.ID, f.id("mallory"))
	assert.Equal(t, models.CodeNotMember, appErrCode(err))
	assert.Equal(t, 403, models.StatusFor(err))

	_, err = f.rooms.GetRoom(ctx, room.ID+100, f.id("alice"))
	assert.Equal(t, models.CodeNotFound, appErrCode(err))
}

func TestRoomServiceAddMembers(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob", "carol", "dave", "mallory")
	ctx := context.Background()
	room, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	require.NoError(t, err)

	_, err = f.rooms.AddMembers(ctx, room.ID, f.id("mallory"), []string{"carol"})
	assert.Equal(t, models.CodeNotMember, appErrCode(err))

	_, err = f.rooms.AddMembers(ctx, room.ID, f.id("alice"), []string{"carol", "bob"})
	assert.Equal(t, models.CodeAlreadyMember, appErrCode(err))
	assert.Equal(t, int64(2), f.count(t, &models.RoomMember{}, room.ID))

	_, err = f.rooms.AddMembers(ctx, room.ID, f.id("alice"), []string{"ghost"})
	assert.Equal(t, models.CodeNotFound, appErrCode(err))

	grown, err := f.rooms.AddMembers(ctx, room.ID, f.id("bob"), []string{"carol", "dave"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, usernames(grown.Users))
	assert.Equal(t, models.RoomKindPrivate, grown.Kind)

	// the grown room no longer blocks a private room for the original pair
	_, err = f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	assert.NoError(t, err)
}

func TestRoomServiceRemoveMemberKeepsRoom(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob", "carol")
	ctx := context.Background()
	room, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob", "carol"})
	require.NoError(t, err)

	dissolved, err := f.rooms.RemoveMember(ctx, room.ID, f.id("carol"))
	require.NoError(t, err)
	assert.False(t, dissolved)

	got, err := f.rooms.GetRoom(ctx, room.ID, f.id("alice"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, usernames(got.Users))

	_, err = f.rooms.RemoveMember(ctx, room.ID, f.id("carol"))
	assert.Equal(t, models.CodeNotMember, appErrCode(err))
}

func TestRoomServiceRemoveMemberDissolves(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob")
	ctx := context.Background()
	room, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	require.NoError(t, err)
	_, err = f.messages.PostMessage(ctx, room.ID, f.id("bob"), "bye")
	require.NoError(t, err)

	dissolved, err := f.rooms.RemoveMember(ctx, room.ID, f.id("bob"))
	require.NoError(t, err)
	assert.True(t, dissolved)

	assert.Zero(t, f.count(t, &models.RoomMember{}, room.ID))
	assert.Zero(t, f.count(t, &models.Message{}, room.ID))
	var rooms int64
	require.NoError(t, f.db.Model(&models.MessageRoom{}).Where("id = ?", room.ID).Count(&rooms).Error)
	assert.Zero(t, rooms)

	_, err = f.rooms.RemoveMember(ctx, room.ID, f.id("alice"))
	assert.Equal(t, models.CodeNotFound, appErrCode(err))

	_, err = f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	assert.NoError(t, err)
}

func TestRoomServiceRename(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob", "mallory")
	ctx := context.Background()
	room, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	require.NoError(t, err)

	assert.Equal(t, models.CodeValidation, appErrCode(f.rooms.RenameRoom(ctx, room.ID, f.id("alice"), "   ")))
	long := make([]rune, 101)
	for i := range long {
		long[i] = 'x'
	}
	assert.Equal(t, models.CodeValidation, appErrCode(f.rooms.RenameRoom(ctx, room.ID, f.id("alice"), string(long))))
	assert.Equal(t, models.CodeNotMember, appErrCode(f.rooms.RenameRoom(ctx, room.ID, f.id("mallory"), "x")))

	require.NoError(t, f.rooms.RenameRoom(ctx, room.ID, f.id("bob"), "  <b>us</b> "))

	var stored models.MessageRoom
	require.NoError(t, f.db.First(&stored, room.ID).Error)
	assert.Equal(t, "&lt;b&gt;us&lt;/b&gt;", stored.Name)

	got, err := f.rooms.GetRoom(ctx, room.ID, f.id("alice"))
	require.NoError(t, err)
	assert.Equal(t, "<b>us</b>", got.Name)
}

func TestRoomServiceRenameFitsEscapedName(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob")
	ctx := context.Background()
	room, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	require.NoError(t, err)

	quotes := strings.Repeat("\"", maxRoomNameLength)
	require.NoError(t, f.rooms.RenameRoom(ctx, room.ID, f.id("alice"), quotes))

	var stored models.MessageRoom
	require.NoError(t, f.db.First(&stored, room.ID).Error)
	assert.Len(t, stored.Name, 5*maxRoomNameLength)

	// sqlite ignores column sizes, so check the declared size directly
	parsed, err := schema.Parse(&models.MessageRoom{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, parsed.LookUpField("Name").Size, len(stored.Name))

	got, err := f.rooms.GetRoom(ctx, room.ID, f.id("bob"))
	require.NoError(t, err)
	assert.Equal(t, quotes, got.Name)
}

func TestRoomServiceListOrdersByLastMessage(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob", "carol", "dave")
	ctx := context.Background()

	empty, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	require.NoError(t, err)
	older, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"carol"})
	require.NoError(t, err)
	newer, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"dave"})
	require.NoError(t, err)

	base := time.Now().Add(-2 * time.Hour)
	f.messages.now = func() time.Time { return base }
	_, err = f.messages.PostMessage(ctx, older.ID, f.id("carol"), "first &amp; old")
	require.NoError(t, err)
	f.messages.now = func() time.Time { return base.Add(time.Hour) }
	_, err = f.messages.PostMessage(ctx, newer.ID, f.id("alice"), "hi <dave>")
	require.NoError(t, err)

	list, err := f.rooms.ListRoomsFor(ctx, f.id("alice"))
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, []uint{newer.ID, older.ID, empty.ID}, []uint{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "hi <dave>", list[0].LastMessage)
	assert.Equal(t, "1 hr", list[0].LastUpdated)
	assert.Equal(t, base.Add(time.Hour).UnixMilli(), list[0].LastMessageTime)
	assert.Equal(t, []string{"dave"}, usernames(list[0].Users))
	assert.Equal(t, "first &amp; old", list[1].LastMessage)

	assert.Equal(t, "", list[2].LastMessage)
	assert.Zero(t, list[2].LastMessageTime)
	assert.Empty(t, list[2].LastUpdated)
}

func TestRoomServiceListUsesNewestMessageAndSharedClock(t *testing.T) {
	f := newRoomFixture(t, "alice", "bob")
	ctx := context.Background()
	room, err := f.rooms.CreateRoom(ctx, f.id("alice"), []string{"bob"})
	require.NoError(t, err)

	base := time.Now().Add(-24 * time.Hour)
	f.messages.now = func() time.Time { return base }
	_, err = f.messages.PostMessage(ctx, room.ID, f.id("alice"), "newest")
	require.NoError(t, err)
	f.messages.now = func() time.Time { return base.Add(-time.Hour) }
	_, err = f.messages.PostMessage(ctx, room.ID, f.id("bob"), "older")
	require.NoError(t, err)

	clock := func() time.Time { return base.Add(time.Hour) }
	f.rooms.now = clock
	f.messages.now = clock

	list, err := f.rooms.ListRoomsFor(ctx, f.id("alice"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "newest", list[0].LastMessage)
	assert.Equal(t, "1 hr", list[0].LastUpdated)

	history, err := f.messages.ListMessages(ctx, room.ID, f.id("alice"))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, list[0].LastMessage, history[len(history)-1].Text)
	assert.Equal(t, list[0].LastUpdated, history[len(history)-1].CreatedAt)
}
