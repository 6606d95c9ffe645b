package sandbox

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storefront/internal/catalog"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial content of a Backend.
type Seed struct {
	Categories []SeedCategory `yaml:"categories"`
	Goods      []SeedGood     `yaml:"goods"`
	Users      []SeedUser     `yaml:"users"`
}

// SeedCategory is a category with an optional parent id.
type SeedCategory struct {
	ID     string `yaml:"_id"`
	Name   string `yaml:"name"`
	Parent string `yaml:"parent,omitempty"`
}

// SeedGood is a good with the ids of the categories listing it.
type SeedGood struct {
	catalog.Good `yaml:",inline"`
	Categories   []string `yaml:"categories"`
}

// SeedUser is an account with a plaintext password, hashed at load time.
type SeedUser struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
}

// DefaultSeed returns the embedded catalog.
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeed)
}

// ParseSeed parses a YAML seed. Unknown fields are rejected to catch typos.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := seed.validate(); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return &seed, nil
}

func (s *Seed) validate() error {
	categories := make(map[string]bool, len(s.Categories))
	for i, c := range s.Categories {
		if c.ID == "" {
			return fmt.Errorf("categories[%d]: _id is required", i)
		}
		if categories[c.ID] {
			return fmt.Errorf("categories[%d]: duplicate _id %q", i, c.ID)
		}
		categories[c.ID] = true
	}
	for i, c := range s.Categories {
		if c.Parent != "" && !categories[c.Parent] {
			return fmt.Errorf("categories[%d]: unknown parent %q", i, c.Parent)
		}
	}

	goods := make(map[string]bool, len(s.Goods))
	for i, g := range s.Goods {
		if g.ID == "" {
			return fmt.Errorf("goods[%d]: _id is required", i)
		}
		if goods[g.ID] {
			return fmt.Errorf("goods[%d]: duplicate _id %q", i, g.ID)
		}
		goods[g.ID] = true
		for _, c := range g.Categories {
			if !categories[c] {
				return fmt.Errorf("goods[%d]: unknown category %q", i, c)
			}
		}
	}

	for i, u := range s.Users {
		if u.Login == "" || u.Password == "" {
			return fmt.Errorf("users[%d]: %w", i, errors.New("login and password are required"))
		}
	}
	return nil
}
