package services

import (
	"waste-route-service/internal/domain"
	"waste-route-service/internal/geo"
)

// AssignPolicy holds the limits of the assignment turn loop.
type AssignPolicy struct {
	// CapacityLimit is the usable share of a vehicle's rated capacity.
	CapacityLimit float64
	// MaxTurns bounds the loop regardless of input size.
	MaxTurns int
}

func DefaultAssignPolicy() AssignPolicy {
	return AssignPolicy{CapacityLimit: 0.95, MaxTurns: 1000}
}

// Ceiling returns the usable payload for a vehicle of the given capacity.
func (p AssignPolicy) Ceiling(capacityKg int) float64 {
	return float64(capacityKg) * p.CapacityLimit
}

type UnassignedReason string

const (
	// No vehicle of the job's class was fielded.
	ReasonNoVehicleForClass UnassignedReason = "no_vehicle_for_class"
	// The job alone is heavier than any same-class vehicle may carry.
	ReasonExceedsCapacity UnassignedReason = "exceeds_capacity"
	// Same-class vehicles filled up before the job could be taken.
	ReasonCapacityExhausted UnassignedReason = "capacity_exhausted"
	// The turn cap stopped the loop while the job was still assignable.
	ReasonTurnLimit UnassignedReason = "turn_limit"
)

type UnassignedJob struct {
	Location domain.Location
	Reason   UnassignedReason
}

// Assignment is the outcome of one run of the assignment engine.
// Routes follow fleet order and include vehicles that got no stops.
type Assignment struct {
	Routes     []*domain.Route
	Turns      int
	Assigned   int
	Unassigned []UnassignedJob
}

// NonEmpty returns the routes with at least one stop, in fleet order.
func (a Assignment) NonEmpty() []*domain.Route {
	out := make([]*domain.Route, 0, len(a.Routes))
	for _, r := range a.Routes {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

// jobPool owns the jobs of one run. Jobs are addressed by index; each class
// pool is an ordered index list so the scan order, and with it the tie-break,
// is the load order.
type jobPool struct {
	jobs     []domain.Location
	assigned []bool
	crane    []int
	standard []int
}

func newJobPool(jobs []domain.Location) *jobPool {
	p := &jobPool{
		jobs:     jobs,
		assigned: make([]bool, len(jobs)),
	}
	for i, j := range jobs {
		if j.Class == domain.ClassCrane {
			p.crane = append(p.crane, i)
		} else {
			p.standard = append(p.standard, i)
		}
	}
	return p
}

func (p *jobPool) forClass(class domain.VehicleClass) []int {
	if class == domain.ClassCrane {
		return p.crane
	}
	return p.standard
}

// nearest returns the closest unassigned job of the route's class that still
// fits under ceiling. The first job encountered wins a distance tie.
func (p *jobPool) nearest(route *domain.Route, ceiling float64) (idx int, distanceKm float64, ok bool) {
	for _, i := range p.forClass(route.Vehicle.Class) {
		if p.assigned[i] {
			continue
		}
		job := p.jobs[i]
		if float64(route.WasteKg+job.WasteKg) > ceiling {
			continue
		}

		d := geo.Between(route.Position, job.Coordinates)
		if !ok || d < distanceKm {
			idx, distanceKm, ok = i, d, true
		}
	}
	return idx, distanceKm, ok
}

// AssignRoutes distributes jobs over fleet with a capacitated round-robin
// nearest-neighbour heuristic.
//
// In every turn each vehicle, in fleet order, takes at most one job: the
// nearest unassigned job of its class that keeps its load within the
// capacity ceiling. The loop stops after a turn without any assignment or
// after policy.MaxTurns turns. Each non-empty route is then closed with the
// leg back to the depot, which counts toward its distance but is not a stop.
//
// The result is a feasible assignment, not an optimal one.
func AssignRoutes(jobs []domain.Location, fleet []domain.Vehicle, depot domain.Coordinates, policy AssignPolicy) Assignment {
	pool := newJobPool(jobs)

	routes := make([]*domain.Route, 0, len(fleet))
	for _, v := range fleet {
		routes = append(routes, domain.NewRoute(v, depot))
	}

	turns := 0
	assigned := 0
	exhausted := false
	for turns < policy.MaxTurns {
		turns++
		made := 0

		for _, route := range routes {
			ceiling := policy.Ceiling(route.CapacityKg)
			if float64(route.WasteKg) >= ceiling {
				continue
			}

			idx, dist, ok := pool.nearest(route, ceiling)
			if !ok {
				continue
			}

			pool.assigned[idx] = true
			route.Visit(pool.jobs[idx], dist)
			made++
		}

		assigned += made
		if made == 0 {
			exhausted = true
			break
		}
	}

	for _, route := range routes {
		if route.Empty() {
			continue
		}
		route.DistanceKm += geo.Between(route.Position, depot)
	}

	return Assignment{
		Routes:     routes,
		Turns:      turns,
		Assigned:   assigned,
		Unassigned: pool.unassigned(fleet, policy, exhausted),
	}
}

// unassigned lists the jobs left over after the loop with the reason they
// were not taken.
func (p *jobPool) unassigned(fleet []domain.Vehicle, policy AssignPolicy, exhausted bool) []UnassignedJob {
	maxCeiling := map[domain.VehicleClass]float64{}
	for _, v := range fleet {
		if c := policy.Ceiling(v.CapacityKg); c > maxCeiling[v.Class] {
			maxCeiling[v.Class] = c
		}
	}

	out := []UnassignedJob{}
	for i, job := range p.jobs {
		if p.assigned[i] {
			continue
		}

		ceiling, fielded := maxCeiling[job.Class]
		reason := ReasonCapacityExhausted
		switch {
		case !fielded:
			reason = ReasonNoVehicleForClass
		case float64(job.WasteKg) > ceiling:
			reason = ReasonExceedsCapacity
		case !exhausted:
			reason = ReasonTurnLimit
		}
		out = append(out, UnassignedJob{Location: job, Reason: reason})
	}
	return out
}
