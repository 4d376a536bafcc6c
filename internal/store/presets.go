package store

import (
	"context"
	"time"
)

// Preset is a named expression.
type Preset struct {
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PresetRepo stores named presets.
type PresetRepo struct{ db *DB }

func NewPresetRepo(db *DB) *PresetRepo { return &PresetRepo{db: db} }

// Upsert creates the preset or replaces its expression.
func (p *PresetRepo) Upsert(ctx context.Context, name, expression string) error {
	return wrap(p.db.gorm.WithContext(ctx).Exec(`INSERT INTO presets(name, expression, updated_at) VALUES (?,?,?)
	ON CONFLICT (name) DO UPDATE SET expression=EXCLUDED.expression, updated_at=EXCLUDED.updated_at`,
		name, expression, time.Now().UTC()).Error, "upsert preset")
}

// List returns every preset ordered by name.
func (p *PresetRepo) List(ctx context.Context) ([]Preset, error) {
	rows, err := p.db.gorm.WithContext(ctx).Raw(`SELECT name, expression, updated_at FROM presets ORDER BY name`).Rows()
	if err != nil {
		return nil, wrap(err, "query presets")
	}
	defer rows.Close()
	var out []Preset
	for rows.Next() {
		var pr Preset
		if err := rows.Scan(&pr.Name, &pr.Expression, &pr.UpdatedAt); err != nil {
			return nil, wrap(err, "scan preset")
		}
		out = append(out, pr)
	}
	return out, wrap(rows.Err(), "iterate presets")
}

// Get returns the named preset or ErrNotFound.
func (p *PresetRepo) Get(ctx context.Context, name string) (Preset, error) {
	row := p.db.gorm.WithContext(ctx).Raw(`SELECT name, expression, updated_at FROM presets WHERE name = ?`, name).Row()
	var pr Preset
	if err := row.Scan(&pr.Name, &pr.Expression, &pr.UpdatedAt); err != nil {
		return Preset{}, wrap(err, "get preset "+name)
	}
	return pr, nil
}

// Delete removes the named preset; deleting a missing preset reports ErrNotFound.
func (p *PresetRepo) Delete(ctx context.Context, name string) error {
	res := p.db.gorm.WithContext(ctx).Exec(`DELETE FROM presets WHERE name = ?`, name)
	if res.Error != nil {
		return wrap(res.Error, "delete preset")
	}
	if res.RowsAffected == 0 {
		return wrap(ErrNotFound, "delete preset "+name)
	}
	return nil
}
