package models

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	ProjectOngoing   = "ongoing"
	ProjectCompleted = "completed"
	ProjectUpcoming  = "upcoming"
)

// Project is a portfolio entry.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	Status      string         `gorm:"index;not null" json:"status"`
	Type        string         `gorm:"index" json:"type"`
	CoverImage  string         `json:"cover_image"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`
	Videos      pq.StringArray `gorm:"type:text[]" json:"videos"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (p *Project) TableName() string {
	return "projects"
}

// ErrProjectNotFound is returned when a project is not found.
var ErrProjectNotFound = errors.New("project not found")

type ProjectFilters struct {
	Status string
	Type   string
}

type ProjectsRepository struct {
	db *gorm.DB
}

func NewProjectsRepository(db *gorm.DB) *ProjectsRepository {
	return &ProjectsRepository{db: db}
}

func (r *ProjectsRepository) List(ctx context.Context, filters ProjectFilters) ([]Project, error) {
	var projects []Project
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Type != "" {
		query = query.Where("LOWER(type) = LOWER(?)", filters.Type)
	}
	if err := query.Find(&projects).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list projects")
	}
	return projects, nil
}

func (r *ProjectsRepository) GetByID(ctx context.Context, id uint) (*Project, error) {
	var project Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, pkgerrors.Wrap(err, "load project")
	}
	return &project, nil
}

func (r *ProjectsRepository) Create(ctx context.Context, p *Project) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return pkgerrors.Wrap(err, "insert project")
	}
	return nil
}

// Update overwrites every column of an existing project.
func (r *ProjectsRepository) Update(ctx context.Context, p *Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Project
		if err := tx.First(&current, p.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return pkgerrors.Wrap(err, "load project")
		}
		p.CreatedAt = current.CreatedAt
		if err := tx.Save(p).Error; err != nil {
			return pkgerrors.Wrap(err, "update project")
		}
		return nil
	})
}

func (r *ProjectsRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Project{}, id)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete project")
	}
	if res.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}
