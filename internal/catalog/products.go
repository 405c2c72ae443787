package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/internal/slotsync"
	"ourvend-sync/lib/textutil"
)

// Product is a product the console catalog should have, Price is what
// machines sell it at, 0 when unknown.
type Product struct {
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
}

// FromReport lists the products a sync run could not find.
func FromReport(r slotsync.RunReport) []Product {
	out := make([]Product, 0, len(r.ProductsNotFound))
	for _, p := range r.ProductsNotFound {
		out = append(out, Product{Name: p.Product, Price: p.Price})
	}
	return out
}

// FromMachines lists every distinct product of the machines in the order
// they first appear, with the first non-zero machine price found for it.
func FromMachines(machines []machineconfig.MachineConfiguration) []Product {
	var out []Product
	index := make(map[string]int)
	for _, m := range machines {
		for _, s := range m.Slots {
			if s.IsClear() {
				continue
			}
			name := strings.TrimSpace(s.ProductName)
			i, ok := index[name]
			if !ok {
				i = len(out)
				index[name] = i
				out = append(out, Product{Name: name})
			}
			if out[i].Price == 0 {
				out[i].Price = s.MachinePrice
			}
		}
	}
	return out
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

func imageKey(name string) string {
	name = textutil.NormalizeName(name)
	return strings.NewReplacer("-", "", "_", "").Replace(name)
}

// FindImage returns the absolute path of the picture in dir named like
// product, ignoring case, spaces, dashes and underscores. It returns ""
// when there is none.
func FindImage(dir, product string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	key := imageKey(product)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !imageExtensions[ext] {
			continue
		}
		if imageKey(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))) == key {
			return filepath.Abs(filepath.Join(dir, e.Name()))
		}
	}
	return "", nil
}
