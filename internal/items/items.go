// Package items loads the shopping list from the supported input
// methods: command-line arguments, inline JSON, stdin, or a CSV file.
package items

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Item is one entry on the shopping list: either a free-text search
// query or a direct UPC, with a quantity.
type Item struct {
	Query    string `json:"query,omitempty"`
	UPC      string `json:"upc,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// Term returns the search term for the item: the query when present,
// otherwise the UPC.
func (i Item) Term() string {
	if i.Query != "" {
		return i.Query
	}
	return i.UPC
}

// FromArgs builds a list from plain item names, one per argument.
func FromArgs(args []string) []Item {
	list := make([]Item, 0, len(args))
	for _, arg := range args {
		list = append(list, Item{Query: arg, Quantity: 1})
	}
	return list
}

// FromJSON decodes a JSON array of items, e.g.
// [{"query": "milk", "quantity": 2}, {"query": "eggs"}].
func FromJSON(r io.Reader) ([]Item, error) {
	var list []Item
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding item list: %w", err)
	}
	return normalize(list), nil
}

// FromCSV reads items from CSV with a header row. Recognized columns:
// query (or name), upc, quantity.
func FromCSV(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var list []Item
	for _, row := range rows[1:] {
		item := Item{}
		switch {
		case field(row, "query") != "":
			item.Query = field(row, "query")
		case field(row, "upc") != "":
			item.UPC = field(row, "upc")
		case field(row, "name") != "":
			item.Query = field(row, "name")
		default:
			continue
		}

		if q := field(row, "quantity"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil {
				return nil, fmt.Errorf("invalid quantity %q for item %q", q, item.Term())
			}
			item.Quantity = n
		}
		list = append(list, item)
	}

	return normalize(list), nil
}

// FromFile loads items from a CSV file on disk.
func FromFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening items file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return FromCSV(f)
}

// normalize defaults missing quantities to one.
func normalize(list []Item) []Item {
	for i := range list {
		if list[i].Quantity <= 0 {
			list[i].Quantity = 1
		}
	}
	return list
}
