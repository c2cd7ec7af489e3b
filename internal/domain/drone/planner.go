package drone

import (
	"math"
	"sort"

	"github.com/andrescamacho/skycourier-go/internal/domain/order"
	"github.com/andrescamacho/skycourier-go/internal/domain/shared"
)

// ClosestOrder finds the order whose destination is nearest to the given
// position. Returns nil when orders is empty; ties keep the earliest.
func ClosestOrder(from shared.Position, orders []*order.Order) *order.Order {
	minDist := math.Inf(1)
	var closest *order.Order
	for _, o := range orders {
		dist := from.DistanceTo(o.Destination())
		if dist < minDist {
			minDist = dist
			closest = o
		}
	}
	return closest
}

// ClosestWarehouse finds the warehouse nearest to the given position.
// Warehouses are visited in sorted id order so equal distances resolve
// deterministically. Returns ("", +Inf) when the map is empty.
func ClosestWarehouse(from shared.Position, warehouses map[string]shared.Position) (string, float64) {
	ids := make([]string, 0, len(warehouses))
	for id := range warehouses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	minDist := math.Inf(1)
	closest := ""
	for _, id := range ids {
		dist := from.DistanceTo(warehouses[id])
		if dist < minDist {
			minDist = dist
			closest = id
		}
	}
	return closest, minDist
}

// Path generates a nearest-neighbor tour over the given orders starting at
// first. Returns an empty path when orders is empty or first is not among
// them. Ties between equally distant destinations keep the earliest order.
func Path(orders []*order.Order, first *order.Order) []*order.Order {
	if len(orders) == 0 || first == nil {
		return nil
	}
	found := false
	for _, o := range orders {
		if o.ID() == first.ID() {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	path := []*order.Order{first}
	visited := map[string]bool{first.ID(): true}
	current := first
	for len(path) < len(orders) {
		var next *order.Order
		minDist := math.Inf(1)
		for _, o := range orders {
			if visited[o.ID()] {
				continue
			}
			dist := current.Destination().DistanceTo(o.Destination())
			if dist < minDist {
				minDist = dist
				next = o
			}
		}
		if next == nil {
			break
		}
		visited[next.ID()] = true
		path = append(path, next)
		current = next
	}
	return path
}

// TravelDistance calculates the total flight distance of a route: the leg
// from the starting position to the first destination plus every consecutive
// destination-to-destination leg.
func TravelDistance(from shared.Position, route []*order.Order) float64 {
	if len(route) == 0 {
		return 0.0
	}
	total := from.DistanceTo(route[0].Destination())
	for i := 0; i < len(route)-1; i++ {
		total += route[i].Destination().DistanceTo(route[i+1].Destination())
	}
	return total
}

// CapacityLevel calculates how full the given orders would leave a drone
// with the given capacity, capped at 1.
func CapacityLevel(orders []*order.Order, capacity float64) float64 {
	if capacity <= 0 {
		return 0.0
	}
	level := order.TotalWeight(orders) / capacity
	return math.Min(level, 1.0)
}

// Utility scores a candidate set of orders. An empty set or a travel
// distance beyond the drone's autonomy scores -Inf (infeasible); otherwise
// the score rewards filling capacity and penalizes spent range:
//
//	utility = capacityLevel + (1 - travelDistance/autonomy)
//
// Callers compare candidates with >=, so among equal scores the last one
// evaluated wins; iterate candidates in a deterministic order.
func Utility(numOrders int, travelDistance, autonomy, capacityLevel float64) float64 {
	if numOrders == 0 {
		return math.Inf(-1)
	}
	if travelDistance > autonomy {
		return math.Inf(-1)
	}
	return capacityLevel + (1.0 - travelDistance/autonomy)
}

// combineOrders generates every combination of orders whose total weight
// fits the capacity, smallest combinations first and in input order within
// each size.
func combineOrders(orders []*order.Order, capacity float64) [][]*order.Order {
	var sets [][]*order.Order
	n := len(orders)
	for r := 1; r <= n; r++ {
		indices := make([]int, r)
		for i := range indices {
			indices[i] = i
		}
		for {
			combo := make([]*order.Order, r)
			weight := 0.0
			for i, j := range indices {
				combo[i] = orders[j]
				weight += orders[j].Weight()
			}
			if weight <= capacity {
				sets = append(sets, combo)
			}

			i := r - 1
			for i >= 0 && indices[i] == i+n-r {
				i--
			}
			if i < 0 {
				break
			}
			indices[i]++
			for j := i + 1; j < r; j++ {
				indices[j] = indices[j-1] + 1
			}
		}
	}
	return sets
}

// BestAvailableOrders finds the feasible subset of the proposed orders with
// the highest utility, evaluated from the given position against the given
// capacity and autonomy. Returns nil when no subset both fits the capacity
// and lies within autonomy range.
func BestAvailableOrders(proposed []*order.Order, from shared.Position, capacity, autonomy float64) []*order.Order {
	var best []*order.Order
	bestUtility := math.Inf(-1)
	for _, set := range combineOrders(proposed, capacity) {
		first := ClosestOrder(from, set)
		route := Path(set, first)
		travel := TravelDistance(from, route)
		setUtility := Utility(len(set), travel, autonomy, CapacityLevel(set, capacity))
		if math.IsInf(setUtility, -1) {
			continue
		}
		if setUtility >= bestUtility {
			best = set
			bestUtility = setUtility
		}
	}
	return best
}

// TasksInRange walks the route accumulating flight distance and returns the
// deepest order after which the drone can still reach some warehouse on its
// current autonomy. Returns nil when no order qualifies or when the deepest
// qualifying order is the final one (no forced warehouse return needed).
func TasksInRange(from shared.Position, route []*order.Order, autonomy float64, warehouses map[string]shared.Position) *order.Order {
	var deepest *order.Order
	deepestIndex := -1
	traveled := 0.0
	prev := from
	for i, o := range route {
		traveled += prev.DistanceTo(o.Destination())
		_, toWarehouse := ClosestWarehouse(o.Destination(), warehouses)
		if traveled+toWarehouse <= autonomy {
			deepest = o
			deepestIndex = i
		}
		prev = o.Destination()
	}
	if deepestIndex == len(route)-1 {
		return nil
	}
	return deepest
}
