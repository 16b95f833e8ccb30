package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/pkg/logger"
)

// Archiver writes analysis artifacts to object storage as JSON documents.
// Archival is best effort: callers log failures and continue.
type Archiver struct {
	store ObjectStorage
	log   zerolog.Logger
}

func NewArchiver(store ObjectStorage) *Archiver {
	return &Archiver{
		store: store,
		log:   logger.Component("archiver"),
	}
}

func (a *Archiver) ArchiveForecast(ctx context.Context, f *domain.Forecast) error {
	key := fmt.Sprintf("forecasts/%s/%s.json", f.ProductID, f.ID)
	return a.upload(ctx, key, f)
}

func (a *Archiver) ArchiveBasket(ctx context.Context, res *domain.MarketBasketResult) error {
	key := fmt.Sprintf("baskets/%s/%s.json", res.AnalysisDate.Format("2006-01-02"), res.ID)
	return a.upload(ctx, key, res)
}

func (a *Archiver) upload(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode archive document: %w", err)
	}
	if err := a.store.UploadObject(ctx, key, data, "application/json"); err != nil {
		return err
	}
	a.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("archived artifact")
	return nil
}
