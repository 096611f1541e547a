package services

import (
	"go.uber.org/zap"

	"waste-route-service/internal/domain"
)

// FleetPolicy bounds how many vehicles are fielded and what they carry.
type FleetPolicy struct {
	FleetCap            int
	MaxCraneVehicles    int
	CraneJobsPerVehicle int
	CraneCapacityKg     int
	StandardCapacityKg  int
}

func DefaultFleetPolicy() FleetPolicy {
	return FleetPolicy{
		FleetCap:            15,
		MaxCraneVehicles:    3,
		CraneJobsPerVehicle: 10,
		CraneCapacityKg:     12000,
		StandardCapacityKg:  8000,
	}
}

// CapacityFor returns the rated payload of a vehicle class.
func (p FleetPolicy) CapacityFor(class domain.VehicleClass) int {
	if class == domain.ClassCrane {
		return p.CraneCapacityKg
	}
	return p.StandardCapacityKg
}

// CraneVehicles returns how many crane vehicles to field for craneJobs jobs,
// before clamping to the fleet size: none without crane work, otherwise one
// per CraneJobsPerVehicle jobs (rounded up) capped at MaxCraneVehicles.
func (p FleetPolicy) CraneVehicles(craneJobs int) int {
	if craneJobs <= 0 {
		return 0
	}
	per := max(p.CraneJobsPerVehicle, 1)
	n := (craneJobs + per - 1) / per
	return min(p.MaxCraneVehicles, max(1, n))
}

// ComposeFleet builds today's working fleet from the roster.
//
// The first min(FleetCap, len(drivers)) drivers are fielded in roster order.
// Crane slots are filled first, the rest drive standard vehicles.
func ComposeFleet(drivers []domain.Driver, craneJobs int, policy FleetPolicy, log *zap.Logger) []domain.Vehicle {
	if log == nil {
		log = zap.NewNop()
	}

	size := min(policy.FleetCap, len(drivers))
	cranes := min(policy.CraneVehicles(craneJobs), size)

	fleet := make([]domain.Vehicle, 0, size)
	for i, d := range drivers[:size] {
		class := domain.ClassStandard
		if i < cranes {
			class = domain.ClassCrane
		}
		fleet = append(fleet, domain.NewVehicle(d, class, policy.CapacityFor(class)))
	}

	log.Info("fleet composed",
		zap.Int("drivers", len(drivers)),
		zap.Int("fleet_size", size),
		zap.Int("crane_vehicles", cranes),
		zap.Int("standard_vehicles", size-cranes),
		zap.Int("crane_jobs", craneJobs),
	)

	return fleet
}
