package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/fretes/internal/freight"
	"github.com/sadopc/fretes/internal/money"
)

type jsonExport struct {
	ExportedAt string       `json:"exported_at"`
	Kind       Kind         `json:"kind"`
	Count      int          `json:"count"`
	Total      money.Amount `json:"total"`
	Entries    []jsonEntry  `json:"entries"`
}

type jsonEntry struct {
	Row        int          `json:"row"`
	Date       string       `json:"date"`
	Period     string       `json:"period"`
	Driver     string       `json:"driver,omitempty"`
	Client     string       `json:"client"`
	Fleet      string       `json:"fleet"`
	Type       string       `json:"type"`
	Value      money.Amount `json:"value"`
	Containers []string     `json:"containers,omitempty"`
	Note       string       `json:"note,omitempty"`
}

func ToJSON(entries []freight.Entry, kind Kind, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Kind:       kind,
		Count:      len(entries),
		Entries:    []jsonEntry{},
	}

	for _, e := range entries {
		export.Total = money.NewAmount(export.Total.Add(e.Value.Decimal))
		export.Entries = append(export.Entries, jsonEntry{
			Row:        e.Row,
			Date:       e.Date,
			Period:     e.PeriodKey(),
			Driver:     e.Driver,
			Client:     e.Client,
			Fleet:      e.Fleet,
			Type:       e.Type,
			Value:      e.Value,
			Containers: e.Containers(),
			Note:       note(e, kind),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
