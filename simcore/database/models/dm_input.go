package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DmInput input types. Only these feed the growth engine; unknown types are
// carried through untouched so future types never break a pass.
const (
	InputTypePopulationAdjustment = "population_adjustment"
	InputTypeGdpAdjustment        = "gdp_adjustment"
	InputTypeGrowthRateModifier   = "growth_rate_modifier"
	InputTypeSpecialEvent         = "special_event"
)

// DmInput is an administrator-authored, time-bounded adjustment to growth
// inputs. A nil CountryID means the input applies globally. The engine only
// ever reads these; deactivation and deletion are administrative actions.
type DmInput struct {
	bun.BaseModel `bun:"table:dm_inputs,alias:dmi"`

	ID        int64   `bun:"id,pk,autoincrement"`
	CountryID *string `bun:"country_id"` // null = global
	InputType string  `bun:"input_type,notnull"`
	Value     float64 `bun:"value,notnull"`

	// Duration is a synthetic-time window length in IxTime years. When set,
	// the input stops influencing computation once now >= IxCreated+Duration.
	Duration *float64 `bun:"duration"`
	IsActive bool     `bun:"is_active,notnull,default:true"`

	IxCreated float64   `bun:"ix_created,notnull"` // synthetic creation instant
	CreatedAt time.Time `bun:"created_at,notnull"`
}
