package seed

import (
	"fmt"
	"regexp"
	"strings"

	"messenger/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

var usernameStrip = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// Factory generates demo content. A fixed seed gives repeatable output.
type Factory struct {
	faker *gofakeit.Faker
	taken map[string]bool
}

// NewFactory returns a Factory; seed 0 picks a random seed.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed), taken: make(map[string]bool)}
}

// Reserve marks a username as used so Username never returns it.
func (f *Factory) Reserve(username string) {
	f.taken[strings.ToLower(username)] = true
}

// Username returns a fresh username that passes account validation.
func (f *Factory) Username() string {
	for {
		name := usernameStrip.ReplaceAllString(f.faker.Username(), "")
		if len(name) > 30 {
			name = name[:30]
		}
		if len(name) < 4 {
			name = fmt.Sprintf("%s%d", name, f.faker.Number(1000, 9999))
		}
		if validation.ValidateUsername(name) != nil || f.taken[strings.ToLower(name)] {
			continue
		}
		f.Reserve(name)
		return name
	}
}

// Email returns an address derived from the username.
func (f *Factory) Email(username string) string {
	return strings.ToLower(username) + "@" + f.faker.DomainName()
}

// RoomName returns a short display name for a group room.
func (f *Factory) RoomName() string {
	name := f.faker.Adjective() + " " + f.faker.Noun()
	return strings.ToUpper(name[:1]) + name[1:]
}

// Message returns chat text of one to two sentences.
func (f *Factory) Message() string {
	if f.faker.Bool() {
		return f.faker.HipsterSentence(f.faker.Number(3, 10))
	}
	return f.faker.Sentence(f.faker.Number(3, 12))
}

// Pick returns n distinct indexes below total, in random order.
func (f *Factory) Pick(total, n int) []int {
	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	f.faker.ShuffleInts(idx)
	if n > total {
		n = total
	}
	return idx[:n]
}
