package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yuzpew2/casadbendang/internal/domain/addon"
	domainbooking "github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/daterange"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

const bookingsCollection = "bookings"

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toBooking(), nil
}

// Create inserts the booking inside a transaction that first counts
// conflicting date holders, so two concurrent requests for overlapping
// ranges cannot both commit.
//
// The count alone is not enough: Mongo transactions are snapshot-isolated
// and only writes raise conflicts, so two creates that each count zero and
// insert distinct documents would both commit. The transaction therefore
// bumps a sequence field on the property row first. Concurrent creates for
// the same property then write the same document, the loser aborts with a
// write conflict, and its retry re-counts against the winner's committed
// insert.
func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	session, err := r.col.Database().Client().StartSession()
	if err != nil {
		return storeErr(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if b.Status.HoldsDates() {
			props := r.col.Database().Collection(propertiesCollection)
			lockFilter, lockUpdate := propertyLock(b.PropertyID)
			if err := props.FindOneAndUpdate(sc, lockFilter, lockUpdate).Err(); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, storeErr(err)
			}
			conflicts, err := r.col.CountDocuments(sc, overlapFilter(b.PropertyID, b.Range))
			if err != nil {
				return nil, storeErr(err)
			}
			if conflicts > 0 {
				return nil, domainbooking.ErrDatesUnavailable
			}
		}
		if _, err := r.col.InsertOne(sc, newBookingDocument(b)); err != nil {
			return nil, storeErr(err)
		}
		return nil, nil
	})
	return err
}

// propertyLock is the shared-document write that serializes booking creates
// for one property. Every create increments the same counter on the
// property row, so overlapping transactions cannot both hold a clean
// snapshot past this point.
func propertyLock(propertyID string) (filter, update bson.M) {
	return bson.M{"_id": propertyID}, bson.M{"$inc": bson.M{"booking_seq": 1}}
}

func (r *BookingRepository) ListByProperty(ctx context.Context, propertyID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"property_id": propertyID})
}

func (r *BookingRepository) ListHolding(ctx context.Context, propertyID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"property_id": propertyID, "status": bson.M{"$in": holdingStatuses()}})
}

func (r *BookingRepository) ListPendingBefore(ctx context.Context, propertyID string, cutoff time.Time) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{
		"property_id": propertyID,
		"status":      string(domainbooking.StatusPending),
		"created_at":  bson.M{"$lt": cutoff.UnixMilli()},
	})
}

// UpdateStatusIf writes next only while the row's status still equals
// expected, so a concurrent transition loses cleanly instead of being
// overwritten.
func (r *BookingRepository) UpdateStatusIf(ctx context.Context, id domainbooking.BookingID, expected, next domainbooking.Status, now time.Time) (*domainbooking.Booking, error) {
	filter := bson.M{"_id": string(id), "status": string(expected)}
	update := bson.M{"$set": bson.M{"status": string(next), "updated_at": now.UTC().UnixMilli()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bookingDocument
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toBooking(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeErr(err)
	}
	// No match: either the row is gone or its status moved under us.
	if _, err := r.ByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domainbooking.ErrInvalidTransition
}

func (r *BookingRepository) ExpirePending(ctx context.Context, propertyID string, cutoff time.Time, note string, now time.Time) (int64, error) {
	filter := bson.M{
		"property_id": propertyID,
		"status":      string(domainbooking.StatusPending),
		"created_at":  bson.M{"$lt": cutoff.UnixMilli()},
	}
	// Pipeline update so the note is appended to whatever is already there.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status":     string(domainbooking.StatusCancelled),
			"updated_at": now.UTC().UnixMilli(),
			"notes": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{bson.M{"$ifNull": bson.A{"$notes", ""}}, bson.A{""}}},
				note,
				bson.M{"$concat": bson.A{"$notes", "\n", note}},
			}},
		}}},
	}
	res, err := r.col.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.ModifiedCount, nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return domainbooking.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var docs []bookingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr(err)
	}
	bookings := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		bookings = append(bookings, doc.toBooking())
	}
	return bookings, nil
}

// overlapFilter matches date-holding bookings whose half-open range
// intersects r: existing.start < r.end AND existing.end > r.start.
func overlapFilter(propertyID string, r daterange.DateRange) bson.M {
	return bson.M{
		"property_id": propertyID,
		"status":      bson.M{"$in": holdingStatuses()},
		"start_date":  bson.M{"$lt": r.End.UnixMilli()},
		"end_date":    bson.M{"$gt": r.Start.UnixMilli()},
	}
}

func holdingStatuses() []string {
	return []string{
		string(domainbooking.StatusPending),
		string(domainbooking.StatusConfirmed),
		string(domainbooking.StatusMaintenance),
	}
}

type bookingDocument struct {
	ID         string           `bson:"_id"`
	PropertyID string           `bson:"property_id"`
	GuestName  string           `bson:"guest_name,omitempty"`
	GuestPhone string           `bson:"guest_phone,omitempty"`
	StartDate  int64            `bson:"start_date"`
	EndDate    int64            `bson:"end_date"`
	RoomCount  int              `bson:"room_count"`
	Guests     int              `bson:"guests"`
	Status     string           `bson:"status"`
	Total      money.Money      `bson:"total"`
	AddOns     []addon.Snapshot `bson:"add_ons,omitempty"`
	Notes      string           `bson:"notes,omitempty"`
	CreatedAt  int64            `bson:"created_at"`
	UpdatedAt  int64            `bson:"updated_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:         string(b.ID),
		PropertyID: b.PropertyID,
		GuestName:  b.GuestName,
		GuestPhone: b.GuestPhone,
		StartDate:  b.Range.Start.UnixMilli(),
		EndDate:    b.Range.End.UnixMilli(),
		RoomCount:  b.RoomCount,
		Guests:     b.Guests,
		Status:     string(b.Status),
		Total:      b.Total,
		AddOns:     b.AddOns,
		Notes:      b.Notes,
		CreatedAt:  b.CreatedAt.UnixMilli(),
		UpdatedAt:  b.UpdatedAt.UnixMilli(),
	}
}

func (d bookingDocument) toBooking() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		PropertyID: d.PropertyID,
		GuestName:  d.GuestName,
		GuestPhone: d.GuestPhone,
		Range:      daterange.DateRange{Start: timestampToTime(d.StartDate), End: timestampToTime(d.EndDate)},
		RoomCount:  d.RoomCount,
		Guests:     d.Guests,
		Status:     domainbooking.Status(d.Status),
		Total:      d.Total,
		AddOns:     d.AddOns,
		Notes:      d.Notes,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domainbooking.ErrStoreUnavailable, err)
}
