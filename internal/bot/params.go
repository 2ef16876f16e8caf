package bot

// Params tunes the rule-based fleet strategy. Ratios are fractions of ship
// capacity (Constants.MaxHalite).
type Params struct {
	// ReturnRatio sends a ship home unconditionally once its cargo exceeds it.
	ReturnRatio float64 `yaml:"return_ratio" json:"return_ratio"`
	// SecondaryReturnRatio sends a ship home when its cell is no longer interesting.
	SecondaryReturnRatio float64 `yaml:"secondary_return_ratio" json:"secondary_return_ratio"`
	// InterestingRatio is the cell amount worth staying on or travelling to.
	InterestingRatio float64 `yaml:"interesting_ratio" json:"interesting_ratio"`
	// InterestingDecrement lowers the search threshold after a fruitless sweep.
	InterestingDecrement float64 `yaml:"interesting_decrement" json:"interesting_decrement"`
	// SafetyMargin is the number of turns reserved for blocking on the way home.
	SafetyMargin int `yaml:"safety_margin" json:"safety_margin"`
	// SpawnUntilTurn stops ship production after this turn.
	SpawnUntilTurn int `yaml:"spawn_until_turn" json:"spawn_until_turn"`
	// DefendStructures lets one adjacent ship ram an enemy parked on a drop point.
	DefendStructures bool `yaml:"defend_structures" json:"defend_structures"`

	Dropoff  DropoffParams  `yaml:"dropoff" json:"dropoff"`
	Kamikaze KamikazeParams `yaml:"kamikaze" json:"kamikaze"`
}

// DropoffParams controls ship-to-dropoff conversion.
type DropoffParams struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	MinShips    int  `yaml:"min_ships" json:"min_ships"`
	MinDistance int  `yaml:"min_distance" json:"min_distance"`
	UntilTurn   int  `yaml:"until_turn" json:"until_turn"`
}

// KamikazeParams controls the two-player shipyard blocker.
type KamikazeParams struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	MinShips int  `yaml:"min_ships" json:"min_ships"`
}

// DefaultParams returns the tuning of the latest bot iteration.
func DefaultParams() Params {
	return Params{
		ReturnRatio:          0.95,
		SecondaryReturnRatio: 0.85,
		InterestingRatio:     0.05,
		InterestingDecrement: 0.01,
		SafetyMargin:         5,
		SpawnUntilTurn:       200,
		DefendStructures:     true,
		Dropoff: DropoffParams{
			Enabled:     true,
			MinShips:    10,
			MinDistance: 15,
			UntilTurn:   300,
		},
		Kamikaze: KamikazeParams{
			Enabled:  false,
			MinShips: 8,
		},
	}
}

func (p Params) ratio(capacity int, r float64) int {
	return int(float64(capacity) * r)
}
