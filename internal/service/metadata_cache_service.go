package service

import (
	"context"
	"encoding/json"
	"fmt"

	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/internal/pkg/logger"
	"dashboard-summarizer/internal/repository/contract"
	"dashboard-summarizer/pkg/fingerprint"

	"github.com/go-playground/validator/v10"
)

type IMetadataCache interface {
	Get(ctx context.Context, fp fingerprint.Fingerprint) (*model.MetadataDocument, bool)
	Put(ctx context.Context, fp fingerprint.Fingerprint, doc *model.MetadataDocument) error
}

// MetadataCache maps fingerprints to serialized metadata documents on top of a
// key/value repository. A stored payload that is missing, unreadable or fails
// validation is reported as a miss and never surfaces as an error.
type MetadataCache struct {
	store    contract.KeyValueRepository
	validate *validator.Validate
	logger   logger.ILogger
}

func NewMetadataCache(store contract.KeyValueRepository, log logger.ILogger) *MetadataCache {
	return &MetadataCache{
		store:    store,
		validate: validator.New(),
		logger:   log,
	}
}

func (c *MetadataCache) Get(ctx context.Context, fp fingerprint.Fingerprint) (*model.MetadataDocument, bool) {
	raw, found, err := c.store.GetItem(ctx, fp.String())
	if err != nil {
		c.logger.Debug("MetadataCache", "Cache read failed, treating as miss", map[string]interface{}{"fingerprint": fp.String(), "error": err.Error()})
		return nil, false
	}
	if !found {
		return nil, false
	}

	doc, err := decodeMetadataDocument(raw)
	if err != nil {
		c.logger.Debug("MetadataCache", "Cached payload unusable, treating as miss", map[string]interface{}{"fingerprint": fp.String(), "error": err.Error()})
		return nil, false
	}
	if err := c.validate.Struct(doc); err != nil {
		c.logger.Debug("MetadataCache", "Cached payload failed validation, treating as miss", map[string]interface{}{"fingerprint": fp.String(), "error": err.Error()})
		return nil, false
	}

	return doc, true
}

func (c *MetadataCache) Put(ctx context.Context, fp fingerprint.Fingerprint, doc *model.MetadataDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode metadata document: %w", err)
	}
	if err := c.store.SetItem(ctx, fp.String(), string(payload)); err != nil {
		return fmt.Errorf("store metadata document: %w", err)
	}
	return nil
}

func decodeMetadataDocument(raw string) (*model.MetadataDocument, error) {
	var doc *model.MetadataDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("payload is null")
	}
	return doc, nil
}
