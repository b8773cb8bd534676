// Package fixtures generates sample users, stores them as JSON fixture files
// in a blob store and seeds data contexts from them.
package fixtures

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"usercore/internal/blob"
	"usercore/pkg/domain"

	"github.com/google/uuid"
)

// FormatVersion is written into every fixture file.
const FormatVersion = 1

var (
	firstnames = []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace", "Heidi", "Ivan", "Judy", "Mallory", "Niaj", "Olivia", "Peggy", "Rupert", "Sybil", "Trent", "Victor", "Walter", "Yara"}
	lastnames  = []string{"Anderson", "Brown", "Clark", "Davis", "Evans", "Fischer", "Garcia", "Hughes", "Ito", "Jones", "Kowalski", "Lopez", "Miller", "Nguyen", "Okafor", "Patel", "Quinn", "Rossi", "Smith", "Taylor"}
)

// Options controls generation.
type Options struct {
	// Seed makes output deterministic when non-zero.
	Seed uint64
}

// Generate returns n users with fresh IDs and pseudo-random names. The action
// flag always starts false.
func Generate(n int, opts Options) ([]domain.User, error) {
	if n < 0 {
		return nil, fmt.Errorf("generate: negative count %d", n)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	rng := rand.New(src)

	users := make([]domain.User, 0, n)
	for range n {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		users = append(users, domain.User{
			ID:        id.String(),
			Firstname: firstnames[rng.IntN(len(firstnames))],
			Lastname:  lastnames[rng.IntN(len(lastnames))],
		})
	}
	return users, nil
}

// File is the on-disk fixture layout.
type File struct {
	Version     int           `json:"version"`
	GeneratedAt time.Time     `json:"generated_at"`
	Users       []domain.User `json:"users"`
}

// Save writes users as a JSON fixture under key, replacing any previous file.
func Save(ctx context.Context, store blob.Store, key string, users []domain.User) (blob.Info, error) {
	if users == nil {
		users = []domain.User{}
	}
	payload, err := json.MarshalIndent(File{Version: FormatVersion, GeneratedAt: time.Now().UTC(), Users: users}, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode fixture: %w", err)
	}
	info, err := store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"users": strconv.Itoa(len(users))},
		Overwrite:   true,
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store fixture %s: %w", key, err)
	}
	return info, nil
}

// Load reads the fixture stored under key.
func Load(ctx context.Context, store blob.Store, key string) ([]domain.User, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", key, err)
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", key, err)
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("fixture %s: unsupported version %d", key, f.Version)
	}
	return f.Users, nil
}

// Seed adds users to dc and commits once, returning the affected row count.
func Seed(ctx context.Context, dc domain.DataContext, users []domain.User) (int, error) {
	set := dc.Users()
	added := make([]*domain.User, 0, len(users))
	for _, u := range users {
		added = append(added, set.Add(u))
	}
	n, err := dc.SaveChanges(ctx)
	if err != nil {
		// untrack the batch so later commits are not blocked by it
		for _, p := range added {
			set.Remove(p)
		}
		return 0, fmt.Errorf("seed users: %w", err)
	}
	return n, nil
}
