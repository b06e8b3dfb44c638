// Command validate checks registry and risk table files before they are
// deployed. It loads every feed the service would load, reports each
// malformed payload, and prints how many authoritative months each
// (city, disease) row carries.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -diseases data/diseases.json \
//	  -cities data/cities.json \
//	  -risk-table data/risk_table.json
//
// Omitted flags validate the embedded defaults.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/disease-risk-service/internal/registry"
	"github.com/couchcryptid/disease-risk-service/internal/riskdata"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	diseases := flag.String("diseases", "", "path to disease registry JSON (default: embedded)")
	cities := flag.String("cities", "", "path to city registry JSON (default: embedded)")
	table := flag.String("risk-table", "", "path to risk table JSON (default: embedded)")
	flag.Parse()

	os.Exit(run(*diseases, *cities, *table))
}

func run(diseasePath, cityPath, tablePath string) int {
	fmt.Println("=== Disease Risk Data Validation ===")
	fmt.Println()

	loadPhase := &phase{name: "Registry and risk table load"}
	reg, err := registry.LoadFiles(diseasePath, cityPath)
	if err != nil {
		loadPhase.errorf("registry: %v", err)
	}

	var t *riskdata.Table
	if reg != nil {
		t, err = riskdata.LoadFile(tablePath, reg)
		if err != nil {
			loadPhase.errorf("risk table: %v", err)
		}
	}

	phases := []*phase{loadPhase}
	if t != nil {
		phases = append(phases, validateCoverage(reg, t))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	if t != nil {
		fmt.Println()
		printCoverage(t)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateCoverage fails rows that carry no authoritative month at all; a
// row of nulls is almost certainly an export mistake.
func validateCoverage(reg *registry.Registry, t *riskdata.Table) *phase {
	p := &phase{name: "Risk table coverage"}
	for _, c := range t.Coverage() {
		if c.Months == 0 {
			p.errorf("%s/%s: no authoritative months", c.City, c.Disease)
		}
	}
	if len(reg.Cities()) == 0 {
		p.errorf("city registry is empty")
	}
	return p
}

func printCoverage(t *riskdata.Table) {
	rows := t.Coverage()
	fmt.Printf("Coverage: %d rows\n", len(rows))
	for _, c := range rows {
		bar := strings.Repeat("#", c.Months) + strings.Repeat(".", 12-c.Months)
		fmt.Printf("  %-12s %-12s %s %2d/12\n", c.City, c.Disease, bar, c.Months)
	}
}
