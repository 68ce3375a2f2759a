package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
)

// ReviewSummary is the reviews of a store with their average rating
// rounded to one decimal place.
type ReviewSummary struct {
	StoreID       string          `json:"store_id"`
	Reviews       []*model.Review `json:"reviews"`
	AverageRating decimal.Decimal `json:"average_rating"`
	Count         int64           `json:"count"`
}

// ReviewService aggregates store reviews.
type ReviewService struct {
	stores  *repository.StoreRepo
	reviews *repository.ReviewRepo
}

func NewReviewService(stores *repository.StoreRepo, reviews *repository.ReviewRepo) *ReviewService {
	return &ReviewService{stores: stores, reviews: reviews}
}

// StoreReviews lists the reviews of storeID with the rating average.
func (s *ReviewService) StoreReviews(ctx context.Context, storeID string) (*ReviewSummary, error) {
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		return nil, err
	}
	list, err := s.reviews.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	sum, count, err := s.reviews.RatingTotals(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return &ReviewSummary{
		StoreID:       storeID,
		Reviews:       list,
		AverageRating: AverageRating(sum, count),
		Count:         count,
	}, nil
}

// AverageRating returns sum/count rounded half away from zero to one
// place, or zero when there are no ratings.
func AverageRating(sum, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(1)
}
