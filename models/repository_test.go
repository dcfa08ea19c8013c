package models_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/oakhaus/showroom/database"
	"github.com/oakhaus/showroom/models"
)

// openTestDB connects to TEST_DATABASE_URL, migrates and empties every table.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(dsn, zap.NewNop(), false)
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(db, zap.NewNop()))
	require.NoError(t, db.Exec("TRUNCATE products, orders, feedback, projects RESTART IDENTITY").Error)
	return db
}

func newFamily(t *testing.T, code string) []models.Product {
	t.Helper()
	rows, err := models.BuildFamily(models.Product{
		Name:        "Harbor Armchair",
		Code:        code,
		Theme:       "Coastal",
		Category:    "Seating",
		Price:       decimal.NewFromInt(1200),
		WoodType:    "Teak",
		CushionType: "Foam",
		Image:       "/media/main.jpg",
	}, []models.VariantOverride{
		{WoodType: "Mango", CushionType: "Spring", Image: "/media/mango.jpg"},
	})
	require.NoError(t, err)
	return rows
}

func TestProductsRepositoryFamilyLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := models.NewProductsRepository(openTestDB(t))

	require.NoError(t, repo.CreateFamily(ctx, newFamily(t, "ARM-01")))
	assert.ErrorIs(t, repo.CreateFamily(ctx, newFamily(t, "ARM-01")), models.ErrFamilyExists)

	family, err := repo.GetFamily(ctx, "ARM-01")
	require.NoError(t, err)
	assert.Len(t, family.Variants, 16)
	assert.Equal(t, "Teak", family.Main.WoodType)

	res := family.Resolve("Mango", "Spring")
	assert.True(t, res.Available)
	assert.Equal(t, "/media/mango.jpg", res.Image)

	list, total, err := repo.GetFilteredProducts(ctx, 0, 10, models.ProductFilters{Theme: "coastal"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsMainVariant)

	themes, err := repo.GetThemes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Coastal"}, themes)

	// Promote the mango row and check the old main was demoted.
	mango, ok := family.Find("Mango", "Spring")
	require.True(t, ok)
	mango.IsMainVariant = true
	require.NoError(t, repo.Update(ctx, &mango))

	family, err = repo.GetFamily(ctx, "ARM-01")
	require.NoError(t, err)
	assert.Equal(t, mango.ID, family.Main.ID)

	assert.ErrorIs(t, repo.Delete(ctx, mango.ID), models.ErrMainVariantLocked)

	n, err := repo.DeleteFamily(ctx, "ARM-01")
	require.NoError(t, err)
	assert.Equal(t, int64(16), n)
	_, err = repo.GetFamily(ctx, "ARM-01")
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestProductsRepositoryUpdateRejectsDuplicateCombination(t *testing.T) {
	ctx := context.Background()
	repo := models.NewProductsRepository(openTestDB(t))
	require.NoError(t, repo.CreateFamily(ctx, newFamily(t, "SOFA-02")))

	family, err := repo.GetFamily(ctx, "SOFA-02")
	require.NoError(t, err)
	row, ok := family.Find("Mango", "None")
	require.True(t, ok)

	row.Price = decimal.NewFromInt(990)
	require.NoError(t, repo.Update(ctx, &row))

	// Every grid point is taken, so moving the row collides with a sibling.
	row.WoodType = "Teak"
	row.CushionType = "Foam"
	assert.ErrorIs(t, repo.Update(ctx, &row), models.ErrDuplicateCombination)
}

func TestProductsRepositoryUpdateRejectsMoveToCodeWithoutMain(t *testing.T) {
	ctx := context.Background()
	repo := models.NewProductsRepository(openTestDB(t))
	require.NoError(t, repo.CreateFamily(ctx, newFamily(t, "ARM-01")))
	require.NoError(t, repo.CreateFamily(ctx, newFamily(t, "ARM-02")))

	family, err := repo.GetFamily(ctx, "ARM-01")
	require.NoError(t, err)
	row, ok := family.Find("Sheesham", "None")
	require.True(t, ok)

	moved := row
	moved.Code = "ORPHAN"
	assert.ErrorIs(t, repo.Update(ctx, &moved), models.ErrNoTargetFamily)

	_, err = repo.GetFamily(ctx, "ORPHAN")
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	stored, err := repo.GetByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, "ARM-01", stored.Code)

	// Moving into a family that has a main row but a free grid point works.
	target, err := repo.GetFamily(ctx, "ARM-02")
	require.NoError(t, err)
	taken, ok := target.Find("Sheesham", "None")
	require.True(t, ok)
	require.NoError(t, repo.Delete(ctx, taken.ID))

	moved = row
	moved.Code = "ARM-02"
	require.NoError(t, repo.Update(ctx, &moved))
	target, err = repo.GetFamily(ctx, "ARM-02")
	require.NoError(t, err)
	assert.Len(t, target.Variants, 16)
	assert.Equal(t, "Teak", target.Main.WoodType)
}

func TestOrdersRepository(t *testing.T) {
	ctx := context.Background()
	repo := models.NewOrdersRepository(openTestDB(t))

	first := &models.Order{CustomerName: "Asha", Email: "asha@example.com", Phone: "555-0100"}
	second := &models.Order{CustomerName: "Ravi", Email: "ravi@example.com", Phone: "555-0101"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, "new", first.Status)

	require.NoError(t, repo.UpdateStatus(ctx, first.ID, "contacted"))
	contacted, err := repo.List(ctx, "contacted")
	require.NoError(t, err)
	require.Len(t, contacted, 1)
	assert.Equal(t, first.ID, contacted[0].ID)

	require.NoError(t, repo.Delete(ctx, second.ID))
	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)
	assert.ErrorIs(t, repo.Delete(ctx, second.ID), models.ErrOrderNotFound)
}

func TestFeedbackRepositoryToggleRead(t *testing.T) {
	ctx := context.Background()
	repo := models.NewFeedbackRepository(openTestDB(t))

	item := &models.Feedback{Name: "Asha", Email: "asha@example.com", Message: "Lovely chairs"}
	require.NoError(t, repo.Create(ctx, item))

	toggled, err := repo.ToggleRead(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsRead)
	assert.Equal(t, item.ID, toggled.ID)
	assert.Equal(t, "Lovely chairs", toggled.Message)
	toggled, err = repo.ToggleRead(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsRead)

	read := false
	unread, err := repo.List(ctx, &read)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	require.NoError(t, repo.Delete(ctx, item.ID))
	_, err = repo.ToggleRead(ctx, item.ID)
	assert.ErrorIs(t, err, models.ErrFeedbackNotFound)
}

func TestFeedbackRepositoryConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	repo := models.NewFeedbackRepository(openTestDB(t))

	item := &models.Feedback{Name: "Ravi", Email: "ravi@example.com", Message: "When is the sale?"}
	require.NoError(t, repo.Create(ctx, item))

	const toggles = 9
	var wg sync.WaitGroup
	errs := make(chan error, toggles)
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ToggleRead(ctx, item.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// An odd number of flips leaves the message read.
	read := true
	items, err := repo.List(ctx, &read)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
}

func TestProjectsRepository(t *testing.T) {
	ctx := context.Background()
	repo := models.NewProjectsRepository(openTestDB(t))

	p := &models.Project{Title: "Lake house", Status: models.ProjectOngoing, Images: []string{"/media/a.jpg"}}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/media/a.jpg"}, []string(got.Images))

	got.Status = models.ProjectCompleted
	require.NoError(t, repo.Update(ctx, got))
	ongoing, err := repo.List(ctx, models.ProjectFilters{Status: models.ProjectOngoing})
	require.NoError(t, err)
	assert.Empty(t, ongoing)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}
