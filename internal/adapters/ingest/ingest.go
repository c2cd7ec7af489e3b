// Package ingest loads a dataset directory into domain aggregates: one CSV
// describing the drone fleet and one CSV per warehouse carrying the
// warehouse row followed by its orders.
//
// The files use semicolons as separators, a European decimal comma in
// coordinates, and unit suffixes on drone attributes ("25kg", "30Km",
// "20m/s"). Any malformed row rejects the whole run before agents start.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/andrescamacho/skycourier-go/internal/domain/drone"
	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
	"github.com/andrescamacho/skycourier-go/internal/infrastructure/config"
)

const (
	dronesFile           = "delivery_drones.csv"
	warehouseFilePattern = "delivery_center*.csv"
)

// DroneRow is one line of the drone fleet file after unit stripping.
type DroneRow struct {
	ID             string  `validate:"required"`
	CapacityKg     float64 `validate:"gt=0"`
	AutonomyMeters float64 `validate:"gt=0"`
	Velocity       float64 `validate:"gt=0"`
	InitialPos     string  `validate:"required"`
}

// OrderRow is one order line of a warehouse file. Latitude and longitude
// are the delivery destination; the origin is the warehouse itself.
type OrderRow struct {
	ID        string `validate:"required"`
	Latitude  float64
	Longitude float64
	WeightKg  float64 `validate:"gt=0"`
}

// WarehouseFile is one parsed delivery_center CSV.
type WarehouseFile struct {
	ID       string `validate:"required"`
	Position shared.Position
	Orders   []OrderRow
}

// Loader reads dataset directories and builds warehouses and drones ready
// to hand to the simulation controller.
type Loader struct {
	matrix    config.MatrixConfig
	clock     shared.Clock
	validator *config.Validator
}

// NewLoader creates a loader building matrices with the given settings.
// If clock is nil, uses RealClock (production behavior).
func NewLoader(matrix config.MatrixConfig, clock shared.Clock) *Loader {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Loader{
		matrix:    matrix,
		clock:     clock,
		validator: config.NewValidator(),
	}
}

// Load reads every input file under dir and builds the aggregates. Drones
// start at the position of their initial warehouse, which must be one of
// the loaded warehouses.
func (l *Loader) Load(dir string) ([]*warehouse.Warehouse, []*drone.Drone, error) {
	droneRows, err := l.readDrones(filepath.Join(dir, dronesFile))
	if err != nil {
		return nil, nil, err
	}

	files, err := filepath.Glob(filepath.Join(dir, warehouseFilePattern))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list warehouse files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no %s files found in %s", warehouseFilePattern, dir)
	}
	sort.Strings(files)

	positions := make(map[string]shared.Position, len(files))
	warehouses := make([]*warehouse.Warehouse, 0, len(files))
	for _, path := range files {
		parsed, err := l.readWarehouse(path)
		if err != nil {
			return nil, nil, err
		}
		if _, exists := positions[parsed.ID]; exists {
			return nil, nil, fmt.Errorf("duplicate warehouse id %s in %s", parsed.ID, path)
		}

		w, err := l.buildWarehouse(parsed)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build warehouse from %s: %w", path, err)
		}
		positions[parsed.ID] = parsed.Position
		warehouses = append(warehouses, w)
	}

	drones := make([]*drone.Drone, 0, len(droneRows))
	seen := make(map[string]bool, len(droneRows))
	for _, row := range droneRows {
		if seen[row.ID] {
			return nil, nil, fmt.Errorf("duplicate drone id %s", row.ID)
		}
		seen[row.ID] = true
		if _, ok := positions[row.InitialPos]; !ok {
			return nil, nil, fmt.Errorf("drone %s starts at unknown warehouse %s", row.ID, row.InitialPos)
		}

		d, err := drone.NewDrone(row.ID, row.CapacityKg, row.AutonomyMeters, row.Velocity, row.InitialPos, positions, l.clock)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build drone %s: %w", row.ID, err)
		}
		drones = append(drones, d)
	}

	return warehouses, drones, nil
}

func (l *Loader) buildWarehouse(parsed WarehouseFile) (*warehouse.Warehouse, error) {
	orders := make([]*order.Order, 0, len(parsed.Orders))
	for _, row := range parsed.Orders {
		destination, err := shared.NewPosition(row.Latitude, row.Longitude)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", row.ID, err)
		}
		o, err := order.NewOrder(row.ID, parsed.Position, destination, row.WeightKg)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return warehouse.NewWarehouse(
		parsed.ID,
		parsed.Position,
		orders,
		l.matrix.Divisions,
		float64(l.matrix.CapacityMultiplier),
		l.matrix.BoundsBuffer,
		l.matrix.ReservationTimeout,
		l.clock,
	)
}

func (l *Loader) readDrones(path string) ([]DroneRow, error) {
	records, err := readSemicolonCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no drone rows", path)
	}

	columns, err := columnIndex(records[0], "id", "capacity", "autonomy", "velocity", "initialPos")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows := make([]DroneRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseDroneRow(record, columns)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		if err := l.validator.Validate(row); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseDroneRow(record []string, columns map[string]int) (DroneRow, error) {
	capacity, err := stripUnit(field(record, columns["capacity"]), "kg")
	if err != nil {
		return DroneRow{}, fmt.Errorf("capacity: %w", err)
	}
	autonomyKm, err := stripUnit(field(record, columns["autonomy"]), "Km")
	if err != nil {
		return DroneRow{}, fmt.Errorf("autonomy: %w", err)
	}
	velocity, err := stripUnit(field(record, columns["velocity"]), "m/s")
	if err != nil {
		return DroneRow{}, fmt.Errorf("velocity: %w", err)
	}
	return DroneRow{
		ID:             field(record, columns["id"]),
		CapacityKg:     capacity,
		AutonomyMeters: autonomyKm * 1000,
		Velocity:       velocity,
		InitialPos:     field(record, columns["initialPos"]),
	}, nil
}

// readWarehouse parses one delivery_center file: the first data row is the
// warehouse itself, every following row is an order.
func (l *Loader) readWarehouse(path string) (WarehouseFile, error) {
	records, err := readSemicolonCSV(path)
	if err != nil {
		return WarehouseFile{}, err
	}
	if len(records) < 2 {
		return WarehouseFile{}, fmt.Errorf("%s has no warehouse row", path)
	}

	columns, err := columnIndex(records[0], "id", "latitude", "longitude", "weight")
	if err != nil {
		return WarehouseFile{}, fmt.Errorf("%s: %w", path, err)
	}

	latitude, err := parseCoordinate(field(records[1], columns["latitude"]))
	if err != nil {
		return WarehouseFile{}, fmt.Errorf("%s warehouse latitude: %w", path, err)
	}
	longitude, err := parseCoordinate(field(records[1], columns["longitude"]))
	if err != nil {
		return WarehouseFile{}, fmt.Errorf("%s warehouse longitude: %w", path, err)
	}
	position, err := shared.NewPosition(latitude, longitude)
	if err != nil {
		return WarehouseFile{}, fmt.Errorf("%s warehouse position: %w", path, err)
	}

	parsed := WarehouseFile{
		ID:       field(records[1], columns["id"]),
		Position: position,
		Orders:   make([]OrderRow, 0, len(records)-2),
	}

	for i, record := range records[2:] {
		row, err := parseOrderRow(record, columns)
		if err != nil {
			return WarehouseFile{}, fmt.Errorf("%s row %d: %w", path, i+3, err)
		}
		if err := l.validator.Validate(row); err != nil {
			return WarehouseFile{}, fmt.Errorf("%s row %d: %w", path, i+3, err)
		}
		parsed.Orders = append(parsed.Orders, row)
	}

	if err := l.validator.Validate(parsed); err != nil {
		return WarehouseFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}

func parseOrderRow(record []string, columns map[string]int) (OrderRow, error) {
	latitude, err := parseCoordinate(field(record, columns["latitude"]))
	if err != nil {
		return OrderRow{}, fmt.Errorf("latitude: %w", err)
	}
	longitude, err := parseCoordinate(field(record, columns["longitude"]))
	if err != nil {
		return OrderRow{}, fmt.Errorf("longitude: %w", err)
	}
	weight, err := strconv.Atoi(strings.TrimSpace(field(record, columns["weight"])))
	if err != nil {
		return OrderRow{}, fmt.Errorf("weight: %w", err)
	}
	return OrderRow{
		ID:        field(record, columns["id"]),
		Latitude:  latitude,
		Longitude: longitude,
		WeightKg:  float64(weight),
	}, nil
}

func readSemicolonCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	// The warehouse row has no weight, so rows vary in width.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// columnIndex maps required header names to their positions.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return columns, nil
}

// field returns the record value at index, or "" when the row is short.
func field(record []string, index int) string {
	if index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// stripUnit parses an integer carrying a unit suffix, "25kg" style.
func stripUnit(value, unit string) (float64, error) {
	trimmed := strings.TrimSuffix(value, unit)
	n, err := strconv.Atoi(strings.TrimSpace(trimmed))
	if err != nil {
		return 0, fmt.Errorf("expected integer with %q suffix, got %q", unit, value)
	}
	return float64(n), nil
}

// parseCoordinate reads a float written with a European decimal comma.
func parseCoordinate(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", value)
	}
	return f, nil
}
