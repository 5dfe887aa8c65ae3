package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/pendsim/internal/dynamo"
)

var csvHeader = []string{
	"tick", "time", "cart_position", "angle", "angular_velocity", "cart_velocity",
	"drive_direction", "at_edge", "edge_timer", "integral_error",
}

func WriteCSV(w io.Writer, snaps []dynamo.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, s := range snaps {
		row := []string{
			strconv.FormatUint(s.Tick, 10),
			f(s.Time),
			f(s.CartPosition),
			f(s.Angle),
			f(s.AngularVelocity),
			f(s.CartVelocity),
			strconv.Itoa(s.DriveDirection),
			strconv.FormatBool(s.AtEdge),
			f(s.EdgeTimer),
			f(s.IntegralError),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type ExportData struct {
	Run       RunMetadata       `json:"run"`
	Snapshots []dynamo.Snapshot `json:"snapshots"`
}

func WriteJSON(w io.Writer, meta RunMetadata, snaps []dynamo.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Snapshots: snaps})
}
