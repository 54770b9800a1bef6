package mongo

import (
	"context"
	"errors"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "github.com/yuzpew2/casadbendang/internal/domain/property"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

const propertiesCollection = "properties"

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection(propertiesCollection)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id string) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrPropertyNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toProperty()
}

func (r *PropertyRepository) First(ctx context.Context) (*domainproperty.Property, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrPropertyNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toProperty()
}

func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperty.Property, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var docs []propertyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr(err)
	}
	props := make([]*domainproperty.Property, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toProperty()
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	doc := newPropertyDocument(p)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return storeErr(err)
	}
	return nil
}

// bson cannot encode int map keys, so tier prices are stored keyed by the
// room count's decimal string.
type propertyDocument struct {
	ID                  string                 `bson:"_id"`
	Name                string                 `bson:"name"`
	TierPrices          map[string]money.Money `bson:"tier_prices"`
	MaxGuests           int                    `bson:"max_guests"`
	PendingTimeoutHours int                    `bson:"pending_timeout_hours"`
	WhatsAppNumber      string                 `bson:"whatsapp_number,omitempty"`
	Description         string                 `bson:"description,omitempty"`
	CreatedAt           int64                  `bson:"created_at"`
	UpdatedAt           int64                  `bson:"updated_at"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	tiers := make(map[string]money.Money, len(p.TierPrices))
	for tier, price := range p.TierPrices {
		tiers[strconv.Itoa(tier)] = price
	}
	return propertyDocument{
		ID:                  p.ID,
		Name:                p.Name,
		TierPrices:          tiers,
		MaxGuests:           p.MaxGuests,
		PendingTimeoutHours: p.PendingTimeoutHours,
		WhatsAppNumber:      p.WhatsAppNumber,
		Description:         p.Description,
		CreatedAt:           p.CreatedAt.UnixMilli(),
		UpdatedAt:           p.UpdatedAt.UnixMilli(),
	}
}

func (d propertyDocument) toProperty() (*domainproperty.Property, error) {
	tiers := make(map[int]money.Money, len(d.TierPrices))
	for key, price := range d.TierPrices {
		tier, err := strconv.Atoi(key)
		if err != nil {
			return nil, storeErr(err)
		}
		tiers[tier] = price
	}
	return &domainproperty.Property{
		ID:                  d.ID,
		Name:                d.Name,
		TierPrices:          tiers,
		MaxGuests:           d.MaxGuests,
		PendingTimeoutHours: d.PendingTimeoutHours,
		WhatsAppNumber:      d.WhatsAppNumber,
		Description:         d.Description,
		CreatedAt:           timestampToTime(d.CreatedAt),
		UpdatedAt:           timestampToTime(d.UpdatedAt),
	}, nil
}
