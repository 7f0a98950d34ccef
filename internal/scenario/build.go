package scenario

import (
	"fmt"
	"math/rand/v2"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
)

// Build turns row combinations into scenarios. For each combination the
// character order is shuffled and one of its countries becomes the location.
// The same table, combinations and seed always give the same scenarios.
func Build(table *reference.Table, combos [][]int, seed uint64) ([]model.Scenario, error) {
	rows := table.Countries()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	scenarios := make([]model.Scenario, 0, len(combos))
	for n, combo := range combos {
		if len(combo) != model.Slots {
			return nil, fmt.Errorf("combination %d has %d countries, want %d", n, len(combo), model.Slots)
		}
		for _, i := range combo {
			if i < 0 || i >= len(rows) {
				return nil, fmt.Errorf("combination %d: row %d out of range", n, i)
			}
		}

		var s model.Scenario
		for slot, p := range rng.Perm(model.Slots) {
			row := rows[combo[p]]
			s.Origins[slot] = row.Name
			s.Religions[slot] = row.Religion
		}
		s.Location = rows[combo[rng.IntN(model.Slots)]].Name

		scenarios = append(scenarios, s)
	}

	return scenarios, nil
}
