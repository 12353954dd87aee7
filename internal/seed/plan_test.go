package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlanKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yml")
	require.NoError(t, os.WriteFile(path, []byte("users: 3\naccounts: [alice, bobby]\ngroup_rooms: 0\n"), 0o600))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Users)
	assert.Equal(t, []string{"alice", "bobby"}, plan.Accounts)
	assert.Equal(t, 0, plan.GroupRooms)
	assert.Equal(t, DefaultPlan().Password, plan.Password)
	assert.Equal(t, DefaultPlan().MessagesPerRoom, plan.MessagesPerRoom)
}

func TestParsePlanRejectsImpossiblePlans(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"short password", "password: short"},
		{"negative count", "users: -1"},
		{"tiny group", "group_size: 2"},
		{"group larger than users", "users: 2\ngroup_size: 5"},
		{"friendships without users", "users: 1\ngroup_rooms: 0"},
		{"bad yaml", "users: [1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadPlanMissingFile(t *testing.T) {
	_, err := LoadPlan(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
