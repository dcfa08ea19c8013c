package models

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Feedback is a customer message with a read flag.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Message   string    `gorm:"not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Feedback) TableName() string {
	return "feedback"
}

// ErrFeedbackNotFound is returned when a feedback message is not found.
var ErrFeedbackNotFound = errors.New("feedback not found")

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *Feedback) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return pkgerrors.Wrap(err, "insert feedback")
	}
	return nil
}

// List returns feedback newest first. A nil read means no filter.
func (r *FeedbackRepository) List(ctx context.Context, read *bool) ([]Feedback, error) {
	var items []Feedback
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if read != nil {
		query = query.Where("is_read = ?", *read)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list feedback")
	}
	return items, nil
}

// ToggleRead flips the read flag in a single statement and returns the row as
// stored, so concurrent toggles never lose an update.
func (r *FeedbackRepository) ToggleRead(ctx context.Context, id uint) (*Feedback, error) {
	var item Feedback
	res := r.db.WithContext(ctx).Model(&item).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Update("is_read", gorm.Expr("NOT is_read"))
	if res.Error != nil {
		return nil, pkgerrors.Wrap(res.Error, "toggle feedback read")
	}
	if res.RowsAffected == 0 {
		return nil, ErrFeedbackNotFound
	}
	return &item, nil
}

func (r *FeedbackRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Feedback{}, id)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete feedback")
	}
	if res.RowsAffected == 0 {
		return ErrFeedbackNotFound
	}
	return nil
}
