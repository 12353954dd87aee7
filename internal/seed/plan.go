// Package seed populates a database with demo users, friendships, rooms and
// messages. It is meant for development and tests only.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan describes how much demo data to create.
type Plan struct {
	Seed            int64    `yaml:"seed"`
	Clean           bool     `yaml:"clean"`
	Password        string   `yaml:"password"`
	Accounts        []string `yaml:"accounts"`
	Users           int      `yaml:"users"`
	Friendships     int      `yaml:"friendships"`
	PrivateRooms    int      `yaml:"private_rooms"`
	GroupRooms      int      `yaml:"group_rooms"`
	GroupSize       int      `yaml:"group_size"`
	MessagesPerRoom int      `yaml:"messages_per_room"`
}

// DefaultPlan is used when no plan file is given.
func DefaultPlan() Plan {
	return Plan{
		Clean:           true,
		Password:        "password123",
		Users:           20,
		Friendships:     30,
		PrivateRooms:    8,
		GroupRooms:      3,
		GroupSize:       4,
		MessagesPerRoom: 12,
	}
}

// LoadPlan reads a YAML plan. Fields missing from the file keep their
// DefaultPlan values.
func LoadPlan(path string) (Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read seed plan: %w", err)
	}
	return ParsePlan(raw)
}

// ParsePlan decodes a YAML plan over DefaultPlan and validates it.
func ParsePlan(raw []byte) (Plan, error) {
	plan := DefaultPlan()
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return Plan{}, fmt.Errorf("parse seed plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Validate rejects plans that cannot be satisfied.
func (p Plan) Validate() error {
	total := p.Users + len(p.Accounts)
	switch {
	case len(p.Password) < 8:
		return fmt.Errorf("seed plan: password must be at least 8 characters")
	case p.Users < 0 || p.Friendships < 0 || p.PrivateRooms < 0 || p.GroupRooms < 0 || p.MessagesPerRoom < 0:
		return fmt.Errorf("seed plan: counts must not be negative")
	case p.GroupRooms > 0 && p.GroupSize < 3:
		return fmt.Errorf("seed plan: group_size must be at least 3")
	case p.GroupRooms > 0 && p.GroupSize > total:
		return fmt.Errorf("seed plan: group_size %d exceeds %d users", p.GroupSize, total)
	case (p.Friendships > 0 || p.PrivateRooms > 0) && total < 2:
		return fmt.Errorf("seed plan: at least two users are needed")
	}
	return nil
}
