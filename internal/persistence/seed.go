package persistence

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/portyard/port-ticket-service/internal/auth"
	"github.com/portyard/port-ticket-service/internal/domain"
)

//go:embed seed/fixture.yaml
var defaultFixture []byte

// Fixture is the demo data loaded by the seed command.
type Fixture struct {
	Roles        []NamedRecord      `yaml:"roles"`
	AccessLevels []NamedRecord      `yaml:"access_levels"`
	Users        []FixtureUser      `yaml:"users"`
	Zones        []FixtureZone      `yaml:"zones"`
	Ships        []FixtureShip      `yaml:"ships"`
	Containers   []FixtureContainer `yaml:"containers"`
}

// NamedRecord is an id and display name pair.
type NamedRecord struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// FixtureUser carries a plain password that is hashed on insert.
type FixtureUser struct {
	Name        string      `yaml:"name"`
	Email       string      `yaml:"email"`
	Password    string      `yaml:"password"`
	Role        domain.Role `yaml:"role"`
	AccessLevel string      `yaml:"access_level"`
	Company     string      `yaml:"company"`
	Phone       string      `yaml:"phone"`
}

// FixtureZone describes a zone as a row x column x tier grid.
type FixtureZone struct {
	Name    string `yaml:"name"`
	Rows    int    `yaml:"rows"`
	Columns int    `yaml:"columns"`
	Tiers   int    `yaml:"tiers"`
}

// Capacity is the number of slots in the grid.
func (z FixtureZone) Capacity() int { return z.Rows * z.Columns * z.Tiers }

// FixtureShip is a vessel.
type FixtureShip struct {
	Name         string `yaml:"name"`
	ShippingLine string `yaml:"shipping_line"`
}

// FixtureContainer references its ship by name.
type FixtureContainer struct {
	Code       string  `yaml:"code"`
	Type       string  `yaml:"type"`
	Dimensions string  `yaml:"dimensions"`
	WeightKg   float64 `yaml:"weight_kg"`
	Ship       string  `yaml:"ship"`
}

// LoadFixture reads path, or the embedded fixture when path is empty.
func LoadFixture(path string) (*Fixture, error) {
	data := defaultFixture
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		data = raw
	}
	return ParseFixture(data)
}

// ParseFixture decodes and checks a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	roles := make(map[string]bool, len(f.Roles))
	for _, r := range f.Roles {
		roles[r.ID] = true
	}
	levels := make(map[string]bool, len(f.AccessLevels))
	for _, l := range f.AccessLevels {
		levels[l.ID] = true
	}
	for _, u := range f.Users {
		if !u.Role.Valid() || !roles[string(u.Role)] {
			return fmt.Errorf("seed user %s: unknown role %q", u.Email, u.Role)
		}
		if u.AccessLevel != "" && !levels[u.AccessLevel] {
			return fmt.Errorf("seed user %s: unknown access level %q", u.Email, u.AccessLevel)
		}
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("seed user %q: email and password required", u.Name)
		}
	}
	for _, z := range f.Zones {
		if z.Rows <= 0 || z.Columns <= 0 || z.Tiers <= 0 {
			return fmt.Errorf("seed zone %s: grid dimensions must be positive", z.Name)
		}
	}
	ships := make(map[string]bool, len(f.Ships))
	for _, s := range f.Ships {
		ships[s.Name] = true
	}
	for _, c := range f.Containers {
		if c.Ship != "" && !ships[c.Ship] {
			return fmt.Errorf("seed container %s: unknown ship %q", c.Code, c.Ship)
		}
	}
	return nil
}

// Seed inserts the fixture in one transaction. Existing rows are left as
// they are, so running it twice is harmless.
func Seed(ctx context.Context, pool *pgxpool.Pool, f *Fixture, bcryptCost int, logger *zap.Logger) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, r := range f.Roles {
			if _, err := tx.Exec(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, r.ID, r.Name); err != nil {
				return fmt.Errorf("seed role %s: %w", r.ID, err)
			}
		}
		for _, l := range f.AccessLevels {
			if _, err := tx.Exec(ctx, `INSERT INTO access_levels (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, l.ID, l.Name); err != nil {
				return fmt.Errorf("seed access level %s: %w", l.ID, err)
			}
		}
		for _, u := range f.Users {
			hash, err := auth.HashPassword(u.Password, bcryptCost)
			if err != nil {
				return fmt.Errorf("hash seed password: %w", err)
			}
			var level *string
			if u.AccessLevel != "" {
				level = &u.AccessLevel
			}
			_, err = tx.Exec(ctx, `
                INSERT INTO users (name, email, password_hash, phone, company, role, access_level_id)
                VALUES ($1,$2,$3,$4,$5,$6,$7)
                ON CONFLICT (email) DO NOTHING`,
				u.Name, strings.ToLower(u.Email), hash, u.Phone, u.Company, u.Role, level)
			if err != nil {
				return fmt.Errorf("seed user %s: %w", u.Email, err)
			}
		}
		for _, z := range f.Zones {
			if err := seedZone(ctx, tx, z); err != nil {
				return err
			}
		}
		for _, s := range f.Ships {
			if _, err := tx.Exec(ctx, `INSERT INTO ships (name, shipping_line) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`, s.Name, s.ShippingLine); err != nil {
				return fmt.Errorf("seed ship %s: %w", s.Name, err)
			}
		}
		for _, c := range f.Containers {
			_, err := tx.Exec(ctx, `
                INSERT INTO containers (code, type, dimensions, weight_kg, ship_id, location)
                VALUES ($1,$2,$3,$4,(SELECT id FROM ships WHERE name = $5),$6)
                ON CONFLICT (code) DO NOTHING`,
				strings.ToUpper(c.Code), c.Type, c.Dimensions, c.WeightKg, c.Ship, domain.LocationInTransit)
			if err != nil {
				return fmt.Errorf("seed container %s: %w", c.Code, err)
			}
		}
		logger.Info("seed applied",
			zap.Int("users", len(f.Users)),
			zap.Int("zones", len(f.Zones)),
			zap.Int("containers", len(f.Containers)),
		)
		return nil
	})
}

func seedZone(ctx context.Context, tx pgx.Tx, z FixtureZone) error {
	var zoneID string
	err := tx.QueryRow(ctx, `
        INSERT INTO zones (name, capacity) VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET capacity = EXCLUDED.capacity
        RETURNING id`, z.Name, z.Capacity()).Scan(&zoneID)
	if err != nil {
		return fmt.Errorf("seed zone %s: %w", z.Name, err)
	}

	batch := &pgx.Batch{}
	for row := 1; row <= z.Rows; row++ {
		for col := 1; col <= z.Columns; col++ {
			for tier := 1; tier <= z.Tiers; tier++ {
				batch.Queue(`
                    INSERT INTO slots (zone_id, row_no, column_no, tier) VALUES ($1,$2,$3,$4)
                    ON CONFLICT (zone_id, row_no, column_no, tier) DO NOTHING`, zoneID, row, col, tier)
			}
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed slots for zone %s: %w", z.Name, err)
	}
	return nil
}
