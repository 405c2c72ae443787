package slotsync

import (
	"time"
)

// SlotUpdateResult is the outcome of one slot. Error is set iff Success is
// false.
type SlotUpdateResult struct {
	Slot            int           `json:"slot"`
	ProductName     string        `json:"productName"`
	MachinePrice    float64       `json:"machinePrice,omitempty"`
	Success         bool          `json:"success"`
	Error           string        `json:"error,omitempty"`
	ProductNotFound bool          `json:"productNotFound,omitempty"`
	Suggestions     []string      `json:"suggestions,omitempty"`
	Cleared         bool          `json:"cleared,omitempty"`
	Changed         bool          `json:"changed,omitempty"`
	Changes         []FieldChange `json:"changes,omitempty"`
	// Skipped is set for dry runs that did not write anything.
	Skipped      bool     `json:"skipped,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	OpenAttempts int      `json:"openAttempts,omitempty"`
	Screenshot   string   `json:"screenshot,omitempty"`
	ElapsedMs    int64    `json:"elapsedMs"`
}

type MachineReport struct {
	MachineID   string             `json:"machineId"`
	MachineName string             `json:"machineName"`
	Grouping    string             `json:"machineGrouping"`
	SetupError  string             `json:"setupError,omitempty"`
	Results     []SlotUpdateResult `json:"results"`
	Successful  int                `json:"successful"`
	Failed      int                `json:"failed"`
	ElapsedMs   int64              `json:"elapsedMs"`
}

func (m *MachineReport) add(result SlotUpdateResult) {
	m.Results = append(m.Results, result)
	if result.Success {
		m.Successful++
	} else {
		m.Failed++
	}
}

// SlotRef points at a slot of a machine.
type SlotRef struct {
	Machine string `json:"machine"`
	Slot    int    `json:"slot"`
}

// ProductNotFound is one distinct product the console catalog is missing,
// Price is the first machine price configured for it.
type ProductNotFound struct {
	Product     string    `json:"product"`
	Price       float64   `json:"price,omitempty"`
	Slots       []SlotRef `json:"slots"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

type RunReport struct {
	RunID     string          `json:"runId"`
	StartedAt time.Time       `json:"startedAt"`
	ElapsedMs int64           `json:"elapsedMs"`
	DryRun    bool            `json:"dryRun,omitempty"`
	Machines  []MachineReport `json:"machines"`
	// ProductsNotFound is kept apart from the other failures since it is a
	// data problem, not a UI or timing one.
	ProductsNotFound []ProductNotFound `json:"productsNotFound"`
	// FatalError is set when the run stopped before every machine was
	// processed.
	FatalError string `json:"fatalError,omitempty"`
}

func (r RunReport) Duration() time.Duration {
	return time.Duration(r.ElapsedMs) * time.Millisecond
}

func (r RunReport) Totals() (successful, failed int) {
	for _, m := range r.Machines {
		successful += m.Successful
		failed += m.Failed
	}
	return successful, failed
}

// DistinctMissingProducts lists the names of the products not found, in
// the order they were first seen.
func (r RunReport) DistinctMissingProducts() []string {
	out := make([]string, len(r.ProductsNotFound))
	for i, p := range r.ProductsNotFound {
		out[i] = p.Product
	}
	return out
}

func collectProductsNotFound(machines []MachineReport) []ProductNotFound {
	var out []ProductNotFound
	index := make(map[string]int)
	for _, m := range machines {
		for _, res := range m.Results {
			if !res.ProductNotFound {
				continue
			}
			i, ok := index[res.ProductName]
			if !ok {
				i = len(out)
				index[res.ProductName] = i
				out = append(out, ProductNotFound{Product: res.ProductName})
			}
			if out[i].Price == 0 {
				out[i].Price = res.MachinePrice
			}
			out[i].Slots = append(out[i].Slots, SlotRef{Machine: m.MachineName, Slot: res.Slot})
			out[i].Suggestions = mergeSuggestions(out[i].Suggestions, res.Suggestions)
		}
	}
	return out
}

// mergeSuggestions appends the suggestions not seen yet, keeping the
// closest matches first.
func mergeSuggestions(existing, more []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range more {
		if seen[s] {
			continue
		}
		seen[s] = true
		existing = append(existing, s)
	}
	return existing
}
