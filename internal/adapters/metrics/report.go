// Package metrics persists each drone's end-of-life report. One JSON file
// per drone lands next to the agent logs so runs can be compared offline.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
)

// report keeps the historical result layout consumed by the analysis
// notebooks, original key spelling included.
type report struct {
	DroneParameters droneParameters          `json:"Drone_parameters"`
	Metrics         tripMetrics              `json:"Metrics"`
	Path            []map[string]coordinates `json:"Path"`
}

type droneParameters struct {
	ID       string  `json:"id"`
	Capacity float64 `json:"capacity"`
	Autonomy float64 `json:"autonomy"`
	Velocity float64 `json:"velocity"`
}

type tripMetrics struct {
	TotalTrips        int     `json:"Total Trips"`
	TotalDistance     float64 `json:"Total Distance"`
	MinDistance       float64 `json:"Min Distance"`
	MaxDistance       float64 `json:"Max Distance"`
	AvgDistance       float64 `json:"Avg Distance"`
	OrdersDelivered   int     `json:"Orders Delivered"`
	OccupianceRate    float64 `json:"Occupiance Rate"`
	EnergyConsumption string  `json:"Energy Consumption"`
}

type coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Reporter writes {dir}/{drone_id}.json when a drone reaches its terminal
// state. It plugs in as a simulation observer; write failures are logged
// and never interrupt the run.
type Reporter struct {
	dir    string
	logger zerolog.Logger
}

// NewReporter creates a reporter writing into dir.
func NewReporter(dir string, logger zerolog.Logger) *Reporter {
	return &Reporter{dir: dir, logger: logger}
}

func (r *Reporter) WarehouseOpened(*warehouse.Warehouse) {}

func (r *Reporter) DroneMoved(*drone.Drone) {}

func (r *Reporter) OrderDelivered(string, *order.Order) {}

// DroneDied persists the drone's final metrics.
func (r *Reporter) DroneDied(d *drone.Drone) {
	if err := r.write(d); err != nil {
		r.logger.Error().Err(err).Str("drone", d.ID()).Msg("failed to write drone report")
	}
}

func (r *Reporter) write(d *drone.Drone) error {
	m := d.Metrics()

	stops := m.Path()
	path := make([]map[string]coordinates, 0, len(stops))
	for _, stop := range stops {
		path = append(path, map[string]coordinates{
			stop.ID: {Latitude: stop.Position.Latitude, Longitude: stop.Position.Longitude},
		})
	}

	out := report{
		DroneParameters: droneParameters{
			ID:       m.DroneID(),
			Capacity: m.MaxCapacity(),
			Autonomy: m.MaxAutonomy(),
			Velocity: m.Velocity(),
		},
		Metrics: tripMetrics{
			TotalTrips:        m.TotalTrips(),
			TotalDistance:     round2(m.TotalDistance()),
			MinDistance:       round2(m.MinTripDistance()),
			MaxDistance:       round2(m.MaxTripDistance()),
			AvgDistance:       round2(m.AvgTripDistance()),
			OrdersDelivered:   m.OrdersDelivered(),
			OccupianceRate:    round2(m.OccupancyRate()),
			EnergyConsumption: fmt.Sprintf("%.2f%%", m.EnergyConsumption()*100),
		},
		Path: path,
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	target := filepath.Join(r.dir, d.ID()+".json")
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
