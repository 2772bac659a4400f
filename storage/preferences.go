package storage

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"

	"gridbuilder/grid"
)

// Preferences reads a customer's manufacturing preferences. It implements
// grid.PreferenceSource.
type Preferences struct {
	app *pocketbase.PocketBase
}

func NewPreferences(app *pocketbase.PocketBase) *Preferences {
	return &Preferences{app: app}
}

// GetPreferences returns the customer's preference record, or nil when the
// customer has none recorded.
func (s *Preferences) GetPreferences(ctx context.Context, customerID string) (*grid.ManufacturingPreferences, error) {
	records, err := s.app.FindRecordsByFilter(
		"manufacturing_preferences",
		"customer = {:customer}",
		"",
		1,
		0,
		dbx.Params{"customer": customerID},
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load preferences for customer %s: %w", customerID, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	r := records[0]
	return &grid.ManufacturingPreferences{
		DefaultIllumination:  r.GetString("default_illumination"),
		DefaultMounting:      r.GetString("default_mounting"),
		WireExit:             r.GetString("wire_exit"),
		MarkupPercent:        r.GetFloat("markup_percent"),
		RushSurchargePercent: r.GetFloat("rush_surcharge_percent"),
	}, nil
}
