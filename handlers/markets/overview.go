package markets

import (
	"errors"
	"math"
	"net/http"
	"time"

	"tempora/errs"
	marketmath "tempora/handlers/math/market"
	"tempora/handlers/math/quotes"
	"tempora/models"
	"tempora/security"
	"tempora/setup"

	"gorm.io/gorm"
)

func round(v float64, places int) float64 {
	f := math.Pow10(places)
	return math.Round(v*f) / f
}

// buildOverview attaches derived state (quotes, volume, open interest) to a
// market, recomputed from the trade ledger.
func buildOverview(db *gorm.DB, cfg *setup.Config, svc *security.SecurityService, m *models.Market) (*models.MarketOverview, error) {
	var securities []models.Security
	if result := db.Where("market_id = ?", m.ID).Order("id ASC").Find(&securities); result.Error != nil {
		return nil, result.Error
	}
	var trades []models.Trade
	if result := db.Where("market_id = ?", m.ID).Find(&trades); result.Error != nil {
		return nil, result.Error
	}

	depth := marketmath.Aggregate(securities, trades)
	qts, err := quotes.ForMarket(m, securities, trades, cfg.Pricing, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	m.Securities = securities
	return &models.MarketOverview{
		Market:          *m,
		DescriptionHTML: svc.RenderDescription(m.Description),
		Quotes:          quotes.Display(qts),
		TotalVolume:     round(depth.TotalVolume, 2),
		OpenInterest:    round(depth.OpenInterest, 2),
	}, nil
}

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		// ErrComputation and ErrStorageWrite are internal faults.
		return http.StatusInternalServerError
	}
}
