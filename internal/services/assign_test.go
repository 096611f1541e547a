package services

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-route-service/internal/domain"
	"waste-route-service/internal/geo"
)

var depot = domain.DefaultDepot

func standardFleet(n int) []domain.Vehicle {
	return ComposeFleet(roster(n), 0, DefaultFleetPolicy(), nil)
}

func TestAssignRoutesScenario(t *testing.T) {
	jobs := []domain.Location{
		{ID: 1, Name: "A", Coordinates: domain.NewCoordinates(40.1950, 29.0600), WasteKg: 5000, Class: domain.ClassStandard},
		{ID: 2, Name: "B", Coordinates: domain.NewCoordinates(40.1900, 29.1000), WasteKg: 4000, Class: domain.ClassStandard},
		{ID: 3, Name: "C", Coordinates: domain.NewCoordinates(40.2100, 29.0200), WasteKg: 9000, Class: domain.ClassStandard},
	}

	a := AssignRoutes(jobs, standardFleet(2), depot, DefaultAssignPolicy())

	assert.Equal(t, 2, a.Assigned)
	assert.Equal(t, 2, a.Turns)
	require.Len(t, a.Routes, 2)

	first := a.Routes[0]
	require.Len(t, first.Stops, 1)
	assert.Equal(t, 1, first.Stops[0].LocationID)
	assert.Equal(t, 1.49, first.Stops[0].DistanceKm)
	assert.Equal(t, 5000, first.WasteKg)
	assert.InDelta(t, 2*1.485258454, first.DistanceKm, 1e-6, "out and back to the depot")

	second := a.Routes[1]
	require.Len(t, second.Stops, 1)
	assert.Equal(t, 2, second.Stops[0].LocationID)

	require.Len(t, a.Unassigned, 1)
	assert.Equal(t, 3, a.Unassigned[0].Location.ID)
	assert.Equal(t, ReasonExceedsCapacity, a.Unassigned[0].Reason)

	payload := first.Payload()
	assert.Equal(t, 3.0, payload.Summary.DistanceKm)
	assert.Equal(t, 62.5, payload.Summary.CapacityUtilizationPct)
	assert.Equal(t, "Standard", payload.VehicleClass)
}

func TestAssignRoutesNearestFirst(t *testing.T) {
	jobs := []domain.Location{
		{ID: 1, Coordinates: domain.NewCoordinates(40.2300, 29.0100), WasteKg: 100},
		{ID: 2, Coordinates: domain.NewCoordinates(40.1850, 29.0650), WasteKg: 100},
		{ID: 3, Coordinates: domain.NewCoordinates(40.2000, 29.0400), WasteKg: 100},
	}
	for i := range jobs {
		jobs[i].Class = domain.ClassStandard
	}

	a := AssignRoutes(jobs, standardFleet(1), depot, DefaultAssignPolicy())

	route := a.Routes[0]
	got := []int{}
	for _, s := range route.Stops {
		got = append(got, s.LocationID)
	}
	assert.Equal(t, []int{2, 3, 1}, got)
	assert.Equal(t, []int{1, 2, 3}, []int{route.Stops[0].Sequence, route.Stops[1].Sequence, route.Stops[2].Sequence})
	assert.Equal(t, 4, a.Turns, "three productive turns and one empty turn")
}

func TestAssignRoutesTieGoesToFirstLoaded(t *testing.T) {
	at := domain.NewCoordinates(40.1950, 29.0600)
	jobs := []domain.Location{
		{ID: 7, Coordinates: at, WasteKg: 100, Class: domain.ClassStandard},
		{ID: 3, Coordinates: at, WasteKg: 100, Class: domain.ClassStandard},
	}

	a := AssignRoutes(jobs, standardFleet(1), depot, DefaultAssignPolicy())

	require.Len(t, a.Routes[0].Stops, 2)
	assert.Equal(t, 7, a.Routes[0].Stops[0].LocationID)
	assert.Equal(t, 3, a.Routes[0].Stops[1].LocationID)
	assert.Equal(t, 0.0, a.Routes[0].Stops[1].DistanceKm)
}

func TestAssignRoutesRoundRobin(t *testing.T) {
	jobs := []domain.Location{
		{ID: 1, Coordinates: domain.NewCoordinates(40.1900, 29.0700), WasteKg: 100, Class: domain.ClassStandard},
		{ID: 2, Coordinates: domain.NewCoordinates(40.1950, 29.0750), WasteKg: 100, Class: domain.ClassStandard},
	}

	a := AssignRoutes(jobs, standardFleet(2), depot, DefaultAssignPolicy())

	require.Len(t, a.Routes[0].Stops, 1)
	require.Len(t, a.Routes[1].Stops, 1)
	assert.Equal(t, 1, a.Routes[0].Stops[0].LocationID)
	assert.Equal(t, 2, a.Routes[1].Stops[0].LocationID)
}

func TestAssignRoutesUnassignedReasons(t *testing.T) {
	t.Run("no vehicle for class", func(t *testing.T) {
		jobs := []domain.Location{
			{ID: 1, Coordinates: domain.NewCoordinates(40.19, 29.07), WasteKg: 100, Class: domain.ClassCrane},
		}
		a := AssignRoutes(jobs, standardFleet(1), depot, DefaultAssignPolicy())

		require.Len(t, a.Unassigned, 1)
		assert.Equal(t, ReasonNoVehicleForClass, a.Unassigned[0].Reason)
		assert.Empty(t, a.NonEmpty())
		assert.Equal(t, 0.0, a.Routes[0].DistanceKm, "no return leg for an empty route")
	})

	t.Run("capacity exhausted", func(t *testing.T) {
		jobs := []domain.Location{
			{ID: 1, Coordinates: domain.NewCoordinates(40.19, 29.07), WasteKg: 4000, Class: domain.ClassStandard},
			{ID: 2, Coordinates: domain.NewCoordinates(40.20, 29.08), WasteKg: 4000, Class: domain.ClassStandard},
		}
		a := AssignRoutes(jobs, standardFleet(1), depot, DefaultAssignPolicy())

		require.Len(t, a.Unassigned, 1)
		assert.Equal(t, 2, a.Unassigned[0].Location.ID)
		assert.Equal(t, ReasonCapacityExhausted, a.Unassigned[0].Reason)
	})

	t.Run("turn limit", func(t *testing.T) {
		jobs := []domain.Location{
			{ID: 1, Coordinates: domain.NewCoordinates(40.19, 29.07), WasteKg: 100, Class: domain.ClassStandard},
			{ID: 2, Coordinates: domain.NewCoordinates(40.20, 29.08), WasteKg: 100, Class: domain.ClassStandard},
			{ID: 3, Coordinates: domain.NewCoordinates(40.21, 29.09), WasteKg: 100, Class: domain.ClassStandard},
		}
		a := AssignRoutes(jobs, standardFleet(1), depot, AssignPolicy{CapacityLimit: 0.95, MaxTurns: 1})

		assert.Equal(t, 1, a.Turns)
		assert.Equal(t, 1, a.Assigned)
		require.Len(t, a.Unassigned, 2)
		for _, u := range a.Unassigned {
			assert.Equal(t, ReasonTurnLimit, u.Reason)
		}
	})
}

func TestAssignRoutesCeilingIsInclusive(t *testing.T) {
	jobs := []domain.Location{
		{ID: 1, Coordinates: domain.NewCoordinates(40.19, 29.07), WasteKg: 7600, Class: domain.ClassStandard},
		{ID: 2, Coordinates: domain.NewCoordinates(40.19, 29.07), WasteKg: 1, Class: domain.ClassStandard},
	}

	a := AssignRoutes(jobs, standardFleet(1), depot, DefaultAssignPolicy())

	require.Len(t, a.Routes[0].Stops, 1)
	assert.Equal(t, 7600, a.Routes[0].WasteKg)
	require.Len(t, a.Unassigned, 1)
	assert.Equal(t, 2, a.Unassigned[0].Location.ID)
}

func TestAssignRoutesInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	jobs := make([]domain.Location, 0, 300)
	for i := 1; i <= 300; i++ {
		class := domain.ClassStandard
		if rng.IntN(100) < 15 {
			class = domain.ClassCrane
		}
		jobs = append(jobs, domain.Location{
			ID:          i,
			Coordinates: domain.NewCoordinates(40.10+rng.Float64()*0.2, 28.95+rng.Float64()*0.2),
			WasteKg:     200 + rng.IntN(1800),
			Class:       class,
		})
	}

	craneJobs := 0
	for _, j := range jobs {
		if j.Class == domain.ClassCrane {
			craneJobs++
		}
	}

	policy := DefaultAssignPolicy()
	fleet := ComposeFleet(roster(6), craneJobs, DefaultFleetPolicy(), nil)
	a := AssignRoutes(jobs, fleet, depot, policy)

	require.LessOrEqual(t, a.Turns, policy.MaxTurns)

	seen := map[int]int{}
	for _, route := range a.Routes {
		assert.LessOrEqual(t, float64(route.WasteKg), policy.Ceiling(route.CapacityKg), "vehicle %d over ceiling", route.Vehicle.ID)

		sum := 0
		legs := 0.0
		prev := depot
		for i, s := range route.Stops {
			seen[s.LocationID]++
			sum += s.WasteKg
			assert.Equal(t, i+1, s.Sequence)

			job := jobs[s.LocationID-1]
			assert.Equal(t, route.Vehicle.Class, job.Class, "class mismatch on location %d", s.LocationID)

			legs += geo.Between(prev, s.Coordinates)
			prev = s.Coordinates
		}
		assert.Equal(t, sum, route.WasteKg)

		if !route.Empty() {
			legs += geo.Between(prev, depot)
		}
		assert.True(t, math.Abs(legs-route.DistanceKm) < 1e-6, "distance of vehicle %d", route.Vehicle.ID)
	}

	for _, u := range a.Unassigned {
		seen[u.Location.ID]++
	}
	require.Len(t, seen, len(jobs))
	for id, n := range seen {
		assert.Equal(t, 1, n, "location %d seen %d times", id, n)
	}
	assert.Equal(t, len(jobs)-len(a.Unassigned), a.Assigned)
}
