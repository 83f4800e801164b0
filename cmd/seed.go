package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document loaded at startup to populate the catalog and
// the courier roster. Entries are upserted by id; couriers are matched by phone.
type Seed struct {
	Pharmacies []SeedPharmacy `yaml:"pharmacies"`
	Doctors    []SeedDoctor   `yaml:"doctors"`
	Couriers   []SeedCourier  `yaml:"couriers"`
}

type SeedPharmacy struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Address   string         `yaml:"address"`
	Phone     string         `yaml:"phone"`
	OnDuty    bool           `yaml:"on_duty"`
	Open      bool           `yaml:"open"`
	Lat       float64        `yaml:"lat"`
	Lng       float64        `yaml:"lng"`
	Medicines []SeedMedicine `yaml:"medicines"`
}

type SeedMedicine struct {
	ID                   string   `yaml:"id"`
	Name                 string   `yaml:"name"`
	Aliases              []string `yaml:"aliases"`
	Price                int64    `yaml:"price"`
	Stock                int      `yaml:"stock"`
	RequiresPrescription bool     `yaml:"requires_prescription"`
}

type SeedDoctor struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Specialty string `yaml:"specialty"`
	Phone     string `yaml:"phone"`
}

type SeedCourier struct {
	Name     string   `yaml:"name"`
	Phone    string   `yaml:"phone"`
	Verified bool     `yaml:"verified"`
	Lat      *float64 `yaml:"lat"`
	Lng      *float64 `yaml:"lng"`
}

// SeedResult counts what a seed run wrote.
type SeedResult struct {
	Pharmacies int
	Medicines  int
	Doctors    int
	Couriers   int
}

func LoadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return seed, nil
}

// ApplySeed writes seed through the catalog repository and the create courier
// handler. Couriers already registered under the same phone are skipped.
func ApplySeed(
	ctx context.Context,
	seed Seed,
	catalogRepo ports.CatalogRepository,
	courierRepo ports.CourierRepository,
	createCourier commands.CreateCourierCommandHandler,
) (SeedResult, error) {
	var res SeedResult

	for _, p := range seed.Pharmacies {
		pharmacy, err := p.toDomain()
		if err != nil {
			return res, fmt.Errorf("pharmacy %q: %w", p.Name, err)
		}
		if err := catalogRepo.UpsertPharmacy(ctx, pharmacy); err != nil {
			return res, fmt.Errorf("upsert pharmacy %q: %w", p.Name, err)
		}
		res.Pharmacies++

		for _, m := range p.Medicines {
			medicine, err := m.toDomain(pharmacy.ID)
			if err != nil {
				return res, fmt.Errorf("medicine %q: %w", m.Name, err)
			}
			if err := catalogRepo.UpsertMedicine(ctx, medicine); err != nil {
				return res, fmt.Errorf("upsert medicine %q: %w", m.Name, err)
			}
			res.Medicines++
		}
	}

	for _, d := range seed.Doctors {
		id, err := seedID(d.ID)
		if err != nil {
			return res, fmt.Errorf("doctor %q: %w", d.Name, err)
		}
		if err := catalogRepo.UpsertDoctor(ctx, catalog.Doctor{
			ID: id, Name: d.Name, Specialty: d.Specialty, Phone: d.Phone,
		}); err != nil {
			return res, fmt.Errorf("upsert doctor %q: %w", d.Name, err)
		}
		res.Doctors++
	}

	for _, c := range seed.Couriers {
		_, err := courierRepo.GetByPhone(ctx, c.Phone)
		if err == nil {
			continue
		}
		if !errors.Is(err, errs.ErrObjectNotFound) {
			return res, fmt.Errorf("lookup courier %q: %w", c.Phone, err)
		}

		location, err := c.location()
		if err != nil {
			return res, fmt.Errorf("courier %q: %w", c.Name, err)
		}
		cmd, err := commands.NewCreateCourierCommand(kernel.NewUUID(), c.Name, c.Phone, c.Verified, location)
		if err != nil {
			return res, fmt.Errorf("courier %q: %w", c.Name, err)
		}
		if err := createCourier.Handle(ctx, cmd); err != nil {
			return res, fmt.Errorf("create courier %q: %w", c.Name, err)
		}
		res.Couriers++
	}

	return res, nil
}

func (p SeedPharmacy) toDomain() (catalog.Pharmacy, error) {
	id, err := seedID(p.ID)
	if err != nil {
		return catalog.Pharmacy{}, err
	}
	location, err := kernel.NewGeoPoint(p.Lat, p.Lng)
	if err != nil {
		return catalog.Pharmacy{}, err
	}
	pharmacy := catalog.Pharmacy{
		ID: id, Name: p.Name, Address: p.Address, Phone: p.Phone,
		OnDuty: p.OnDuty, Open: p.Open, Location: location,
	}
	return pharmacy, pharmacy.Validate()
}

func (m SeedMedicine) toDomain(pharmacyID kernel.UUID) (catalog.Medicine, error) {
	id, err := seedID(m.ID)
	if err != nil {
		return catalog.Medicine{}, err
	}
	medicine := catalog.Medicine{
		ID: id, PharmacyID: pharmacyID, Name: m.Name, Aliases: m.Aliases,
		Price: m.Price, Stock: m.Stock, RequiresPrescription: m.RequiresPrescription,
	}
	return medicine, medicine.Validate()
}

func (c SeedCourier) location() (*kernel.GeoPoint, error) {
	if c.Lat == nil || c.Lng == nil {
		return nil, nil
	}
	p, err := kernel.NewGeoPoint(*c.Lat, *c.Lng)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// seedID keeps ids stable across restarts; entries without one get a fresh id.
func seedID(raw string) (kernel.UUID, error) {
	if raw == "" {
		return kernel.NewUUID(), nil
	}
	return kernel.UUIDFromString(raw)
}
