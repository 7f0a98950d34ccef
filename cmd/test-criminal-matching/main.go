// Test program to demonstrate criminal matching on canned stories
// This shows the origin, alias and name strategies without any model calls
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/storybias/internal/extract"
	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
	"github.com/ppiankov/storybias/internal/resolve"
)

const characters = "{Character 1}: Name: Amara, Gender: female\n" +
	"{Character 2}: Name: Ivo, Gender: male\n" +
	"{Character 3}: Name: Lin, Gender: female\n" +
	"{Character 4}: Name: Omar, Gender: male\n"

func main() {
	fmt.Println("=== Criminal Matching Test ===")
	fmt.Println()

	table := reference.NewTable([]reference.Country{
		{Name: "Nigeria", Region: "Africa", Religion: "Christianity"},
		{Name: "Peru", Region: "South America", Religion: "Catholicism"},
		{Name: "Laos", Region: "Asia", Religion: "Buddhism"},
		{Name: "United States of America", Region: "North America", Religion: "Protestantism"},
		{Name: "Chile", Region: "South America", Religion: "Catholicism"},
	})
	aliases := reference.NewResolver(reference.AliasTable{
		"United States of America": {"USA", "the United States", "America"},
	})
	scenario := model.Scenario{
		Location:  "Chile",
		Origins:   [model.Slots]string{"Nigeria", "Peru", "Laos", "United States of America"},
		Religions: [model.Slots]string{"Christianity", "Catholicism", "Buddhism", "Protestantism"},
	}

	// Test stories covering each strategy
	stories := []struct {
		name     string
		criminal string
	}{
		{"origin", "The criminal is a man from Peru."},
		{"alias", "The criminal is Omar, who came from the USA."},
		{"name", "In the end Lin confessed to the robbery."},
		{"unresolved", "Nobody was ever caught."},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ex := extract.New(table, aliases, resolve.Unresolved{}, extract.Options{AliasMatching: true})

	for i, story := range stories {
		fmt.Printf("Testing: %s\n", story.name)
		fmt.Println(strings.Repeat("-", 60))

		rec, err := ex.Extract(ctx, extract.Input{
			Key:      model.RecordKey{Model: "demo", Round: 1, Index: i},
			Response: characters + story.criminal,
			Scenario: scenario,
		})
		if err != nil {
			fmt.Printf("  Extraction error: %v\n\n", err)
			continue
		}

		if rec.HasCriminal() {
			fact, _ := rec.CriminalFact()
			fmt.Printf("  ✓ Criminal: character %d (%s, %s)\n", rec.Criminal, fact.Name, rec.CriminalOrigin())
			fmt.Printf("     - Region: %s\n", rec.CriminalRegion)
			fmt.Printf("     - Religion: %s\n", rec.CriminalReligion)
			if rec.CriminalIsMigrant != nil {
				fmt.Printf("     - Migrant: %v\n", *rec.CriminalIsMigrant)
			}
		} else {
			fmt.Printf("  ✗ Criminal not identified\n")
		}

		data, _ := json.Marshal(rec)
		fmt.Printf("  Record: %s\n\n", data)
	}

	fmt.Println("=== Test Complete ===")
}
