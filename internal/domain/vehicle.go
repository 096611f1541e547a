package domain

import (
	"fmt"
	"strings"
)

// Driver is a roster entry. Each driver fields at most one vehicle per day.
type Driver struct {
	ID            int
	FirstName     string
	LastName      string
	Email         string
	VehicleNumber string
}

// DisplayName returns "First Last", falling back to the vehicle number and then the id.
func (d Driver) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName))
	if name != "" {
		return name
	}
	if v := strings.TrimSpace(d.VehicleNumber); v != "" {
		return v
	}
	return fmt.Sprintf("Vehicle-%d", d.ID)
}

// Vehicle is a fielded truck for one generation run. Its ID is the driver id.
type Vehicle struct {
	ID            int
	Class         VehicleClass
	CapacityKg    int
	Name          string
	VehicleNumber string
}

func NewVehicle(d Driver, class VehicleClass, capacityKg int) Vehicle {
	return Vehicle{
		ID:            d.ID,
		Class:         class,
		CapacityKg:    capacityKg,
		Name:          d.DisplayName(),
		VehicleNumber: d.VehicleNumber,
	}
}
