package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clintrack/trial-registry/internal/core/domain"
	"github.com/clintrack/trial-registry/internal/core/ports"
)

const collectionTrials = "trials"

type TrialRepository struct {
	col *mongo.Collection
}

func NewTrialRepository(db *mongo.Database) *TrialRepository {
	return &TrialRepository{col: db.Collection(collectionTrials)}
}

type trialDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	TrialID               string             `bson:"trial_id"`
	Name                  string             `bson:"name"`
	Description           string             `bson:"description"`
	PrincipalInvestigator string             `bson:"principal_investigator"`
	Sponsor               string             `bson:"sponsor"`
	TherapeuticArea       string             `bson:"therapeutic_area"`
	DrugName              string             `bson:"drug_name,omitempty"`
	Phase                 string             `bson:"phase"`
	Status                string             `bson:"status"`
	StartDate             time.Time          `bson:"start_date"`
	EndDate               time.Time          `bson:"end_date"`
	EstimatedEnrollment   int                `bson:"estimated_enrollment"`
	ActualEnrollment      int                `bson:"actual_enrollment"`
	SecondaryEndpoints    []string           `bson:"secondary_endpoints,omitempty"`
	InclusionCriteria     []string           `bson:"inclusion_criteria,omitempty"`
	ExclusionCriteria     []string           `bson:"exclusion_criteria,omitempty"`
	StudyLocations        []string           `bson:"study_locations,omitempty"`
	Notes                 []domain.Note      `bson:"notes,omitempty"`
	CreatedBy             string             `bson:"created_by"`
	LastModifiedBy        string             `bson:"last_modified_by"`
	CreatedAt             time.Time          `bson:"created_at"`
	UpdatedAt             time.Time          `bson:"updated_at"`
}

func toTrialDoc(t *domain.ClinicalTrial) (*trialDoc, error) {
	doc := &trialDoc{
		TrialID:               t.TrialID,
		Name:                  t.Name,
		Description:           t.Description,
		PrincipalInvestigator: t.PrincipalInvestigator,
		Sponsor:               t.Sponsor,
		TherapeuticArea:       t.TherapeuticArea,
		DrugName:              t.DrugName,
		Phase:                 string(t.Phase),
		Status:                string(t.Status),
		StartDate:             t.StartDate,
		EndDate:               t.EndDate,
		EstimatedEnrollment:   t.EstimatedEnrollment,
		ActualEnrollment:      t.ActualEnrollment,
		SecondaryEndpoints:    t.SecondaryEndpoints,
		InclusionCriteria:     t.InclusionCriteria,
		ExclusionCriteria:     t.ExclusionCriteria,
		StudyLocations:        t.StudyLocations,
		Notes:                 t.Notes,
		CreatedBy:             t.CreatedBy,
		LastModifiedBy:        t.LastModifiedBy,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
	if t.ID != "" {
		oid, err := primitive.ObjectIDFromHex(t.ID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d *trialDoc) toDomain() *domain.ClinicalTrial {
	return &domain.ClinicalTrial{
		ID:                    d.ID.Hex(),
		TrialID:               d.TrialID,
		Name:                  d.Name,
		Description:           d.Description,
		PrincipalInvestigator: d.PrincipalInvestigator,
		Sponsor:               d.Sponsor,
		TherapeuticArea:       d.TherapeuticArea,
		DrugName:              d.DrugName,
		Phase:                 domain.TrialPhase(d.Phase),
		Status:                domain.TrialStatus(d.Status),
		StartDate:             d.StartDate,
		EndDate:               d.EndDate,
		EstimatedEnrollment:   d.EstimatedEnrollment,
		ActualEnrollment:      d.ActualEnrollment,
		SecondaryEndpoints:    d.SecondaryEndpoints,
		InclusionCriteria:     d.InclusionCriteria,
		ExclusionCriteria:     d.ExclusionCriteria,
		StudyLocations:        d.StudyLocations,
		Notes:                 d.Notes,
		CreatedBy:             d.CreatedBy,
		LastModifiedBy:        d.LastModifiedBy,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

// Insert persists a new trial. The unique index on trial_id is the
// authoritative uniqueness check; a duplicate-key failure maps to the same
// conflict error the service's pre-check produces.
func (r *TrialRepository) Insert(ctx context.Context, t *domain.ClinicalTrial) (*domain.ClinicalTrial, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toTrialDoc(t)
	if err != nil {
		return nil, err
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateTrialID
		}
		return nil, err
	}

	created := *t
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

// FindByID retrieves a trial by document id. A malformed id maps to
// ErrInvalidID before any round-trip.
func (r *TrialRepository) FindByID(ctx context.Context, id string) (*domain.ClinicalTrial, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc trialDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTrialNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *TrialRepository) FindByTrialID(ctx context.Context, trialID string) (*domain.ClinicalTrial, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc trialDoc
	if err := r.col.FindOne(ctx, bson.M{"trial_id": trialID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTrialNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// searchFields are the fields the free-text search spans.
var searchFields = []string{
	"name", "trial_id", "description", "principal_investigator",
	"sponsor", "therapeutic_area", "drug_name",
}

// List returns one page of trials matching filter, newest first, plus the
// total count of matches.
func (r *TrialRepository) List(ctx context.Context, filter ports.ListTrialsFilter) ([]*domain.ClinicalTrial, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.OwnerID != "" {
		query["created_by"] = filter.OwnerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Phase != "" {
		query["phase"] = filter.Phase
	}
	if filter.TherapeuticArea != "" {
		query["therapeutic_area"] = filter.TherapeuticArea
	}
	if filter.Search != "" {
		pattern := regexp.QuoteMeta(filter.Search)
		or := make([]bson.M, 0, len(searchFields))
		for _, f := range searchFields {
			or = append(or, bson.M{f: bson.M{"$regex": pattern, "$options": "i"}})
		}
		query["$or"] = or
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var trials []*domain.ClinicalTrial
	for cursor.Next(ctx) {
		var doc trialDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		trials = append(trials, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}
	return trials, total, nil
}

// Replace overwrites the stored document with the merged record.
func (r *TrialRepository) Replace(ctx context.Context, t *domain.ClinicalTrial) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toTrialDoc(t)
	if err != nil {
		return err
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateTrialID
		}
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrTrialNotFound
	}
	return nil
}

func (r *TrialRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrTrialNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes backing uniqueness and the list filters.
func (r *TrialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trial_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "phase", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
