package storage

import "github.com/globaltelecom/voicebridge/internal/types"

// Store defines the lead persistence interface
type Store interface {
	SaveLeadRecord(record types.LeadRecord) error
	GetLeadRecords(dateKey string) ([]types.LeadRecord, error)
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveLeadRecord(_ types.LeadRecord) error             { return nil }
func (s *NoopStore) GetLeadRecords(_ string) ([]types.LeadRecord, error) { return nil, nil }
