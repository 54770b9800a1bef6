package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yuzpew2/casadbendang/internal/domain/addon"
	"github.com/yuzpew2/casadbendang/internal/domain/property"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

// Service covers the read-mostly admin surfaces around the booking core:
// property settings and the add-on catalog. Both are single-admin-edited,
// so plain last-writer-wins saves are enough here.
type Service struct {
	log        *slog.Logger
	properties property.Repository
	addons     addon.Repository
	now        func() time.Time
}

func NewService(log *slog.Logger, properties property.Repository, addons addon.Repository) *Service {
	return &Service{
		log:        log,
		properties: properties,
		addons:     addons,
		now:        time.Now,
	}
}

func (s *Service) Property(ctx context.Context, id string) (*property.Property, error) {
	return s.properties.ByID(ctx, id)
}

// FirstProperty serves the public site's single-property read.
func (s *Service) FirstProperty(ctx context.Context) (*property.Property, error) {
	return s.properties.First(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, id string, settings property.Settings) (*property.Property, error) {
	prop, err := s.properties.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := prop.UpdateSettings(settings, s.now()); err != nil {
		return nil, err
	}
	if err := s.properties.Save(ctx, prop); err != nil {
		return nil, err
	}
	s.log.Info("property settings updated", "property_id", id)
	return prop, nil
}

func (s *Service) ListAddOns(ctx context.Context, propertyID string, activeOnly bool) ([]*addon.AddOn, error) {
	return s.addons.ListByProperty(ctx, propertyID, activeOnly)
}

func (s *Service) CreateAddOn(ctx context.Context, propertyID, name string, price money.Money) (*addon.AddOn, error) {
	if _, err := s.properties.ByID(ctx, propertyID); err != nil {
		return nil, err
	}
	a, err := addon.New(uuid.NewString(), propertyID, name, price, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.addons.Save(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("add-on created", "addon_id", a.ID, "property_id", propertyID, "name", name)
	return a, nil
}

// AddOnUpdate carries a partial catalog edit; nil fields are left alone.
type AddOnUpdate struct {
	Name   *string
	Price  *money.Money
	Active *bool
}

func (s *Service) UpdateAddOn(ctx context.Context, id string, update AddOnUpdate) (*addon.AddOn, error) {
	a, err := s.addons.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, addon.ErrInvalidAddOn
		}
		a.Name = *update.Name
	}
	if update.Price != nil {
		if update.Price.Amount < 0 {
			return nil, addon.ErrInvalidAddOn
		}
		a.Price = *update.Price
	}
	if update.Active != nil {
		a.Active = *update.Active
	}
	if err := s.addons.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAddOn(ctx context.Context, id string) error {
	if err := s.addons.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("add-on deleted", "addon_id", id)
	return nil
}
