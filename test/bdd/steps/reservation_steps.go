package steps

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/messages/go/v21"

	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
	"github.com/andrescamacho/skycourier-go/internal/domain/warehouse"
)

// reservationContext exercises the warehouse negotiation API directly: no
// agents, just one warehouse, a mock clock and competing drone ids.
type reservationContext struct {
	clock     *shared.MockClock
	warehouse *warehouse.Warehouse
	offers    map[string][]*order.Order
}

func (rc *reservationContext) reset() {
	rc.clock = shared.NewMockClock(time.Time{})
	rc.warehouse = nil
	rc.offers = make(map[string][]*order.Order)
}

// Given steps

func (rc *reservationContext) aWarehouseWithTimeoutHoldingOrders(warehouseID string, lat, lon float64, timeoutSeconds int, table *godog.Table) error {
	position, err := shared.NewPosition(lat, lon)
	if err != nil {
		return err
	}
	if len(table.Rows) < 2 {
		return fmt.Errorf("expected a header row and at least one order row")
	}

	orders := make([]*order.Order, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		destLat, err := strconv.ParseFloat(getCellValue(table, row, "latitude"), 64)
		if err != nil {
			return fmt.Errorf("invalid latitude: %w", err)
		}
		destLon, err := strconv.ParseFloat(getCellValue(table, row, "longitude"), 64)
		if err != nil {
			return fmt.Errorf("invalid longitude: %w", err)
		}
		weight, err := strconv.ParseFloat(getCellValue(table, row, "weight"), 64)
		if err != nil {
			return fmt.Errorf("invalid weight: %w", err)
		}
		destination, err := shared.NewPosition(destLat, destLon)
		if err != nil {
			return err
		}
		o, err := order.NewOrder(getCellValue(table, row, "id"), position, destination, weight)
		if err != nil {
			return err
		}
		orders = append(orders, o)
	}

	w, err := warehouse.NewWarehouse(
		warehouseID,
		position,
		orders,
		5,
		3,
		0.01,
		time.Duration(timeoutSeconds)*time.Second,
		rc.clock,
	)
	if err != nil {
		return err
	}
	rc.warehouse = w
	return nil
}

// When steps

func (rc *reservationContext) droneAsksForOrders(droneID string, freeCapacity float64) error {
	if rc.warehouse == nil {
		return fmt.Errorf("no warehouse declared")
	}
	rc.offers[droneID] = rc.warehouse.ProposeOrders(droneID, freeCapacity)
	return nil
}

func (rc *reservationContext) noDecisionArrivesWithin(seconds int) error {
	rc.clock.Advance(time.Duration(seconds) * time.Second)
	return nil
}

// Then steps

func (rc *reservationContext) droneIsOfferedTheSameOrders(droneB string, count int, droneA string) error {
	first := orderIDs(rc.offers[droneA])
	second := orderIDs(rc.offers[droneB])
	if len(first) != count {
		return fmt.Errorf("expected %d orders proposed to %s, got %d", count, droneA, len(first))
	}
	sort.Strings(first)
	sort.Strings(second)
	if len(second) != len(first) {
		return fmt.Errorf("expected %s to be offered %v, got %v", droneB, first, second)
	}
	for i := range first {
		if second[i] != first[i] {
			return fmt.Errorf("expected %s to be offered %v, got %v", droneB, first, second)
		}
	}
	return nil
}

func (rc *reservationContext) droneHoldsNoReservation(droneID string) error {
	if rc.warehouse == nil {
		return fmt.Errorf("no warehouse declared")
	}
	if reserved := rc.warehouse.Matrix().ReservedOrders(droneID); len(reserved) != 0 {
		return fmt.Errorf("expected no reservation for %s, got %d orders", droneID, len(reserved))
	}
	return nil
}

func orderIDs(orders []*order.Order) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID()
	}
	return ids
}

// getCellValue resolves a table cell by column name, using the first row as
// the header
func getCellValue(table *godog.Table, row *messages.PickleTableRow, columnName string) string {
	if len(table.Rows) == 0 {
		return ""
	}
	for i, header := range table.Rows[0].Cells {
		if header.Value == columnName {
			if i < len(row.Cells) {
				return row.Cells[i].Value
			}
			return ""
		}
	}
	return ""
}

func InitializeReservationScenario(ctx *godog.ScenarioContext) {
	rc := &reservationContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		rc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a warehouse "([^"]*)" at coordinates (-?[0-9.]+), (-?[0-9.]+) with a reservation timeout of (\d+) seconds holding these orders:$`, rc.aWarehouseWithTimeoutHoldingOrders)

	// When steps
	ctx.Step(`^drone "([^"]*)" asks for orders with ([0-9.]+) kg of free capacity$`, rc.droneAsksForOrders)
	ctx.Step(`^no decision arrives within (\d+) seconds$`, rc.noDecisionArrivesWithin)

	// Then steps
	ctx.Step(`^drone "([^"]*)" is offered the same (\d+) orders first proposed to drone "([^"]*)"$`, rc.droneIsOfferedTheSameOrders)
	ctx.Step(`^drone "([^"]*)" no longer holds a reservation$`, rc.droneHoldsNoReservation)
}
