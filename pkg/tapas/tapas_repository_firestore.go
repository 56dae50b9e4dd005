package tapas

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	pkgerrors "github.com/pkg/errors"
	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/ledger"
	"github.com/tapas-app/tapas-backend/pkg/localized"
	"github.com/tapas-app/tapas-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreCollection is the collection Tapas documents are stored in
const FirestoreCollection = "tapas"

// FirestoreTapasRepository stores Tapas in Cloud Firestore. Documents written by older clients
// carry check-ins in various formats, they are normalized on read.
type FirestoreTapasRepository struct {
	Observers
	Client *firestore.Client
	Logger logger.Interface
}

type firestoreResult struct {
	Date    time.Time `firestore:"date"`
	Content string    `firestore:"content"`
}

type firestoreDocument struct {
	UserID              string            `firestore:"userId"`
	Name                string            `firestore:"name"`
	Description         interface{}       `firestore:"description"`
	Goals               []string          `firestore:"goals"`
	Parts               []interface{}     `firestore:"parts"`
	Color               string            `firestore:"color"`
	StartDate           time.Time         `firestore:"startDate"`
	Duration            int               `firestore:"duration"`
	ScheduleType        string            `firestore:"scheduleType"`
	ScheduleInterval    int               `firestore:"scheduleInterval"`
	CrystallizationTime int               `firestore:"crystallizationTime"`
	AllowRecuperation   bool              `firestore:"allowRecuperation"`
	CheckedDays         []interface{}     `firestore:"checkedDays"`
	RecuperatedDays     []interface{}     `firestore:"recuperatedDays"`
	AdvancedDays        []interface{}     `firestore:"advancedDays"`
	Results             []firestoreResult `firestore:"results"`
	Status              string            `firestore:"status"`
	FailureCause        string            `firestore:"failureCause"`
	RepeatedFromID      string            `firestore:"repeatedFromId"`
	Repetition          int               `firestore:"repetition"`
	FinishedAt          time.Time         `firestore:"finishedAt"`
	Shared              bool              `firestore:"shared"`
	SharedAt            time.Time         `firestore:"sharedAt"`
	CreatedAt           time.Time         `firestore:"createdAt"`
	LastModifiedAt      time.Time         `firestore:"lastModifiedAt"`
	Deleted             bool              `firestore:"deleted"`
}

func timesToValues(times []time.Time) []interface{} {
	values := make([]interface{}, 0, len(times))
	for _, t := range times {
		values = append(values, t)
	}

	return values
}

func toFirestoreDocument(t *Tapas) firestoreDocument {
	document := firestoreDocument{
		UserID:              t.UserID.Hex(),
		Name:                t.Name,
		Description:         t.Description.Value(),
		Goals:               t.Goals,
		Parts:               make([]interface{}, 0, len(t.Parts)),
		Color:               t.Color,
		StartDate:           t.StartDate,
		Duration:            t.Duration,
		ScheduleType:        string(t.ScheduleType),
		ScheduleInterval:    t.ScheduleInterval,
		CrystallizationTime: t.CrystallizationTime,
		AllowRecuperation:   t.AllowRecuperation,
		CheckedDays:         timesToValues(t.CheckedDays),
		RecuperatedDays:     timesToValues(t.RecuperatedDays),
		AdvancedDays:        timesToValues(t.AdvancedDays),
		Results:             make([]firestoreResult, 0, len(t.Results)),
		Status:              string(t.Status),
		FailureCause:        t.FailureCause,
		Repetition:          t.Repetition,
		FinishedAt:          t.FinishedAt,
		Shared:              t.Shared,
		SharedAt:            t.SharedAt,
		CreatedAt:           t.CreatedAt,
		LastModifiedAt:      t.LastModifiedAt,
		Deleted:             t.Deleted,
	}

	for _, part := range t.Parts {
		document.Parts = append(document.Parts, part.Value())
	}

	for _, result := range t.Results {
		document.Results = append(document.Results, firestoreResult(result))
	}

	if t.RepeatedFromID != nil {
		document.RepeatedFromID = t.RepeatedFromID.Hex()
	}

	return document
}

func (r *FirestoreTapasRepository) normalize(id string, field string, raw []interface{}) []time.Time {
	set, errs := ledger.Normalize(raw)
	for _, err := range errs {
		r.Logger.Warning(fmt.Sprintf("Skipping %s entry of tapas %s", field, id), err)
	}

	return set.Times()
}

func (r *FirestoreTapasRepository) fromSnapshot(snapshot *firestore.DocumentSnapshot) (*Tapas, error) {
	document := firestoreDocument{}
	err := snapshot.DataTo(&document)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "could not decode tapas %s", snapshot.Ref.ID)
	}

	id := snapshot.Ref.ID

	tapasID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "malformed tapas id %s", id)
	}

	userID, err := primitive.ObjectIDFromHex(document.UserID)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "malformed user id on tapas %s", id)
	}

	description, err := localized.From(document.Description)
	if err != nil {
		r.Logger.Warning(fmt.Sprintf("Dropping description of tapas %s", id), err)
	}

	t := Tapas{
		ID:                  tapasID,
		UserID:              userID,
		Name:                document.Name,
		Description:         description,
		Goals:               document.Goals,
		Color:               document.Color,
		StartDate:           document.StartDate,
		Duration:            document.Duration,
		ScheduleType:        date.ScheduleType(document.ScheduleType),
		ScheduleInterval:    document.ScheduleInterval,
		CrystallizationTime: document.CrystallizationTime,
		AllowRecuperation:   document.AllowRecuperation,
		Status:              Status(document.Status),
		FailureCause:        document.FailureCause,
		Repetition:          document.Repetition,
		FinishedAt:          document.FinishedAt,
		Shared:              document.Shared,
		SharedAt:            document.SharedAt,
		CreatedAt:           document.CreatedAt,
		LastModifiedAt:      document.LastModifiedAt,
		Deleted:             document.Deleted,
	}

	for _, raw := range document.Parts {
		part, err := localized.From(raw)
		if err != nil {
			r.Logger.Warning(fmt.Sprintf("Dropping part of tapas %s", id), err)
			continue
		}
		t.Parts = append(t.Parts, part)
	}

	for _, result := range document.Results {
		t.Results = append(t.Results, Result(result))
	}

	if document.RepeatedFromID != "" {
		repeatedFromID, err := primitive.ObjectIDFromHex(document.RepeatedFromID)
		if err == nil {
			t.RepeatedFromID = &repeatedFromID
		}
	}

	l := ledger.NewLedger(
		r.normalize(id, "checkedDays", document.CheckedDays),
		r.normalize(id, "recuperatedDays", document.RecuperatedDays),
		r.normalize(id, "advancedDays", document.AdvancedDays),
	)
	t.SetLedger(l)

	if t.Status == "" {
		t.Status = StatusActive
	}

	return &t, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// Add adds a Tapas
func (r *FirestoreTapasRepository) Add(ctx context.Context, tapas *Tapas) error {
	tapas.CreatedAt = time.Now()
	tapas.LastModifiedAt = time.Now()
	tapas.ID = primitive.NewObjectID()

	_, err := r.Client.Collection(FirestoreCollection).Doc(tapas.ID.Hex()).Create(ctx, toFirestoreDocument(tapas))
	if err != nil {
		return pkgerrors.Wrap(err, "could not insert tapas")
	}

	r.Publish(tapas)

	return nil
}

// Update replaces a Tapas of its owner
func (r *FirestoreTapasRepository) Update(ctx context.Context, tapas *Tapas) error {
	tapas.LastModifiedAt = time.Now()
	reference := r.Client.Collection(FirestoreCollection).Doc(tapas.ID.Hex())

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, transaction *firestore.Transaction) error {
		snapshot, err := transaction.Get(reference)
		if err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return err
		}

		owner, err := snapshot.DataAt("userId")
		if err != nil || owner != tapas.UserID.Hex() {
			return ErrNotFound
		}

		return transaction.Set(reference, toFirestoreDocument(tapas))
	})
	if err != nil {
		if err == ErrNotFound {
			return err
		}
		return pkgerrors.Wrap(err, "could not update tapas")
	}

	r.Publish(tapas)

	return nil
}

func (r *FirestoreTapasRepository) get(ctx context.Context, tapasID string) (*Tapas, error) {
	if _, err := primitive.ObjectIDFromHex(tapasID); err != nil {
		return nil, ErrNotFound
	}

	snapshot, err := r.Client.Collection(FirestoreCollection).Doc(tapasID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "could not find tapas")
	}

	return r.fromSnapshot(snapshot)
}

// FindByID finds a Tapas of a user
func (r *FirestoreTapasRepository) FindByID(ctx context.Context, tapasID string, userID string, isDeleted bool) (*Tapas, error) {
	t, err := r.get(ctx, tapasID)
	if err != nil {
		return nil, err
	}

	if t.UserID.Hex() != userID || t.Deleted != isDeleted {
		return nil, ErrNotFound
	}

	return t, nil
}

// FindSharedByID finds a shared Tapas of any user
func (r *FirestoreTapasRepository) FindSharedByID(ctx context.Context, tapasID string) (*Tapas, error) {
	t, err := r.get(ctx, tapasID)
	if err != nil {
		return nil, err
	}

	if !t.Shared || t.Deleted {
		return nil, ErrNotFound
	}

	return t, nil
}

func (r *FirestoreTapasRepository) userQuery(userID string, filters []Filter) firestore.Query {
	query := r.Client.Collection(FirestoreCollection).
		Where("userId", "==", userID).
		Where("deleted", "==", false)

	for _, filter := range filters {
		query = query.Where(filter.Field, "==", filter.Value)
	}

	return query
}

func (r *FirestoreTapasRepository) decodeAll(snapshots []*firestore.DocumentSnapshot) []Tapas {
	list := make([]Tapas, 0, len(snapshots))
	for _, snapshot := range snapshots {
		t, err := r.fromSnapshot(snapshot)
		if err != nil {
			r.Logger.Warning("Skipping undecodable tapas", err)
			continue
		}
		list = append(list, *t)
	}

	return list
}

// FindAll finds the Tapas of a user paginated, newest first
func (r *FirestoreTapasRepository) FindAll(ctx context.Context, userID string, page int, pageSize int, filters []Filter) ([]Tapas, int, error) {
	query := r.userQuery(userID, filters)

	references, err := query.Select().Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "could not count tapas")
	}

	snapshots, err := query.
		OrderBy("createdAt", firestore.Desc).
		Offset(page * pageSize).
		Limit(pageSize).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "could not query tapas")
	}

	return r.decodeAll(snapshots), len(references), nil
}

// FindAllByUserID finds all Tapas of a user that are not deleted
func (r *FirestoreTapasRepository) FindAllByUserID(ctx context.Context, userID string) ([]Tapas, error) {
	snapshots, err := r.userQuery(userID, nil).Documents(ctx).GetAll()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not query tapas")
	}

	return r.decodeAll(snapshots), nil
}

// Delete marks a Tapas as deleted
func (r *FirestoreTapasRepository) Delete(ctx context.Context, tapasID string, userID string) error {
	tapas, err := r.FindByID(ctx, tapasID, userID, false)
	if err != nil {
		return err
	}

	tapas.Deleted = true

	return r.Update(ctx, tapas)
}
