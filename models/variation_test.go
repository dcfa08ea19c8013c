package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sofaFamily(t *testing.T) *ProductFamily {
	t.Helper()
	family, err := NewProductFamily([]Product{
		{ID: 10, Code: "SOFA", IsMainVariant: true, WoodType: "Teak", CushionType: "Foam",
			Price: decimal.NewFromInt(2400), Image: "/media/sofa-main.jpg"},
		{ID: 11, Code: "SOFA", WoodType: "Mango", CushionType: "Spring",
			Image: "/media/sofa-mango.jpg", CustomizedImage: "/media/sofa-mango-custom.jpg"},
		{ID: 12, Code: "SOFA", WoodType: "Sheesham", CushionType: "None",
			Price: decimal.NewFromInt(2100), Image: "/media/sofa-sheesham.jpg"},
		{ID: 13, Code: "SOFA", WoodType: "Rosewood", CushionType: "Memory Foam"},
	})
	require.NoError(t, err)
	return family
}

func TestInitial(t *testing.T) {
	res := sofaFamily(t).Initial()
	assert.Equal(t, "Teak", res.WoodType)
	assert.Equal(t, "Foam", res.CushionType)
	assert.Equal(t, uint(10), res.VariantID)
	assert.Equal(t, "/media/sofa-main.jpg", res.Image)
	assert.True(t, decimal.NewFromInt(2400).Equal(res.Price))
	assert.True(t, res.Available)
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name              string
		wood              string
		cushion           string
		expectedID        uint
		expectedImage     string
		expectedPrice     int64
		expectedAvailable bool
	}{
		{name: "Main combination", wood: "Teak", cushion: "Foam", expectedID: 10, expectedImage: "/media/sofa-main.jpg", expectedPrice: 2400, expectedAvailable: true},
		{name: "Customized image wins and price inherits", wood: "mango", cushion: "SPRING", expectedID: 11, expectedImage: "/media/sofa-mango-custom.jpg", expectedPrice: 2400, expectedAvailable: true},
		{name: "Own price", wood: "Sheesham", cushion: "None", expectedID: 12, expectedImage: "/media/sofa-sheesham.jpg", expectedPrice: 2100, expectedAvailable: true},
		{name: "Match without image falls back", wood: "Rosewood", cushion: "Memory Foam", expectedImage: "/media/sofa-main.jpg", expectedPrice: 2400},
		{name: "No such row", wood: "Teak", cushion: "Spring", expectedImage: "/media/sofa-main.jpg", expectedPrice: 2400},
		{name: "Empty selection", wood: "", cushion: "", expectedImage: "/media/sofa-main.jpg", expectedPrice: 2400},
	}

	family := sofaFamily(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := family.Resolve(tc.wood, tc.cushion)
			assert.Equal(t, tc.expectedID, res.VariantID)
			assert.Equal(t, tc.expectedImage, res.Image)
			assert.True(t, decimal.NewFromInt(tc.expectedPrice).Equal(res.Price), "price %s", res.Price)
			assert.Equal(t, tc.expectedAvailable, res.Available)
		})
	}
}

func TestResolveReportsCanonicalSpelling(t *testing.T) {
	res := sofaFamily(t).Resolve("sheesham", "none")
	assert.Equal(t, "Sheesham", res.WoodType)
	assert.Equal(t, "None", res.CushionType)

	miss := sofaFamily(t).Resolve("oak", "foam")
	assert.Equal(t, "oak", miss.WoodType, "unmatched selection is echoed back")
}
