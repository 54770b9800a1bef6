package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainaddon "github.com/yuzpew2/casadbendang/internal/domain/addon"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

const addOnsCollection = "add_ons"

type AddOnRepository struct {
	col *mongo.Collection
}

func NewAddOnRepository(db *mongo.Database) *AddOnRepository {
	return &AddOnRepository{col: db.Collection(addOnsCollection)}
}

func (r *AddOnRepository) ByID(ctx context.Context, id string) (*domainaddon.AddOn, error) {
	var doc addOnDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainaddon.ErrAddOnNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toAddOn(), nil
}

func (r *AddOnRepository) ListByProperty(ctx context.Context, propertyID string, activeOnly bool) ([]*domainaddon.AddOn, error) {
	filter := bson.M{"property_id": propertyID}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var docs []addOnDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr(err)
	}
	addOns := make([]*domainaddon.AddOn, 0, len(docs))
	for _, doc := range docs {
		addOns = append(addOns, doc.toAddOn())
	}
	return addOns, nil
}

func (r *AddOnRepository) Save(ctx context.Context, a *domainaddon.AddOn) error {
	doc := newAddOnDocument(a)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *AddOnRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return domainaddon.ErrAddOnNotFound
	}
	return nil
}

type addOnDocument struct {
	ID         string      `bson:"_id"`
	PropertyID string      `bson:"property_id"`
	Name       string      `bson:"name"`
	Price      money.Money `bson:"price"`
	Active     bool        `bson:"active"`
	CreatedAt  int64       `bson:"created_at"`
}

func newAddOnDocument(a *domainaddon.AddOn) addOnDocument {
	return addOnDocument{
		ID:         a.ID,
		PropertyID: a.PropertyID,
		Name:       a.Name,
		Price:      a.Price,
		Active:     a.Active,
		CreatedAt:  a.CreatedAt.UnixMilli(),
	}
}

func (d addOnDocument) toAddOn() *domainaddon.AddOn {
	return &domainaddon.AddOn{
		ID:         d.ID,
		PropertyID: d.PropertyID,
		Name:       d.Name,
		Price:      d.Price,
		Active:     d.Active,
		CreatedAt:  timestampToTime(d.CreatedAt),
	}
}
