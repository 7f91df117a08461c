package modelstesting

import (
	"math/rand"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/go-faker/faker/v4"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// FakeListing returns models.Listing of rent type with fake data and random number of fake images.
func FakeListing(ops ...func(l *models.Listing)) models.Listing {
	id := faker.UUIDDigit()
	listing := models.Listing{
		ID:     id,
		Source: models.SourceCRM,
		Aliases: models.Aliases{
			SourceID:  id,
			Reference: faker.Word(),
		},
		TransactionType: models.TransactionRent,
		Price:           decimal.NewFromInt(int64(500 + rand.Intn(3000))),
		PriceCurrency:   "GBP",
		RentFrequency:   lo.ToPtr(models.FrequencyMonthly),
		Bedrooms:        lo.ToPtr(rand.Intn(5)),
		Bathrooms:       lo.ToPtr(1 + rand.Intn(3)),
		PropertyType:    faker.Word(),
		Status:          models.StatusAvailable,
		Images:          fakeImages(),
		Address:         lo.ToPtr(FakeAddress()),
	}

	for _, op := range ops {
		op(&listing)
	}

	return listing
}

// FakeAddress returns models.Address with fake data.
func FakeAddress(ops ...func(a *models.Address)) models.Address {
	address := models.Address{
		Line1:    faker.Word(),
		Town:     faker.Word(),
		Postcode: faker.Word(),
		Country:  "GB",
	}

	for _, op := range ops {
		op(&address)
	}

	return address
}

func fakeImages() []string {
	imagesLen := rand.Intn(5)
	images := make([]string, 0, imagesLen)
	for range imagesLen {
		images = append(images, faker.URL())
	}

	return images
}
