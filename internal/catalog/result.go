package catalog

import (
	"time"
)

// Result is the outcome of one product. Error is set when the product
// should have been added and was not.
type Result struct {
	Product string `json:"product"`
	Code    string `json:"code,omitempty"`
	Price   string `json:"price,omitempty"`
	Image   string `json:"image,omitempty"`
	Added   bool   `json:"added"`
	// Skipped is set for products already listed and for dry runs, Reason
	// says which.
	Skipped   bool   `json:"skipped,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsedMs"`
}

type Report struct {
	StartedAt  time.Time `json:"startedAt"`
	ElapsedMs  int64     `json:"elapsedMs"`
	DryRun     bool      `json:"dryRun,omitempty"`
	Results    []Result  `json:"results"`
	Added      int       `json:"added"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	FatalError string    `json:"fatalError,omitempty"`
}

func (r *Report) add(result Result) {
	r.Results = append(r.Results, result)
	switch {
	case result.Added:
		r.Added++
	case result.Error != "":
		r.Failed++
	default:
		r.Skipped++
	}
}

func (r Report) Duration() time.Duration {
	return time.Duration(r.ElapsedMs) * time.Millisecond
}
