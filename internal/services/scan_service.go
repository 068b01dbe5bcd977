package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/Darshan-chovatiya/nexus-backend/internal/repository"
	eventws "github.com/Darshan-chovatiya/nexus-backend/internal/websocket"
	"github.com/Darshan-chovatiya/nexus-backend/pkg/utils"
)

var (
	ErrMalformedCode = errors.New("malformed code payload")
	ErrSelfScan      = errors.New("cannot scan your own code")
)

type ScanService struct {
	scanRepo *repository.ScanRepository
	events   eventPublisher
}

func NewScanService(scanRepo *repository.ScanRepository, events eventPublisher) *ScanService {
	return &ScanService{
		scanRepo: scanRepo,
		events:   events,
	}
}

// RecordScan decodes the scanned QR payload and appends one ledger entry.
// Scans never create or touch bookings; repeated scans of the same pair each
// add a new record.
func (s *ScanService) RecordScan(
	ctx context.Context,
	scannerID string,
	codePayload string,
) (*models.ScanRecord, error) {
	scannerID = strings.ToLower(strings.TrimSpace(scannerID))
	if !utils.IsAccountID(scannerID) {
		return nil, ErrInvalidInput
	}

	scannedID, err := DecodeCodePayload(codePayload)
	if err != nil {
		return nil, err
	}
	if scannedID == scannerID {
		return nil, ErrSelfScan
	}

	record, err := s.scanRepo.Create(ctx, scannerID, scannedID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Publish(eventws.EventTypeScan, record.ID, "", record.ScannerID, record.ScannedID)
	}
	return record, nil
}

// ListScansOf returns who scanned the account, newest first.
func (s *ScanService) ListScansOf(
	ctx context.Context,
	accountID string,
	page int,
	limit int,
) ([]models.ScanRecord, int, error) {
	return s.scanRepo.ListByScanned(ctx, strings.ToLower(strings.TrimSpace(accountID)), limit, (page-1)*limit)
}

// ListScansBy returns who the account scanned, newest first.
func (s *ScanService) ListScansBy(
	ctx context.Context,
	accountID string,
	page int,
	limit int,
) ([]models.ScanRecord, int, error) {
	return s.scanRepo.ListByScanner(ctx, strings.ToLower(strings.TrimSpace(accountID)), limit, (page-1)*limit)
}

// DecodeCodePayload extracts the account id from a scanned QR payload: the
// trailing path segment of a URL-like string, which must be exactly 24 hex
// characters. Anything else is rejected rather than guessed at.
func DecodeCodePayload(payload string) (string, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return "", ErrMalformedCode
	}

	parts := strings.Split(trimmed, "/")
	segment := parts[len(parts)-1]
	if !utils.IsAccountID(segment) {
		return "", ErrMalformedCode
	}
	return strings.ToLower(segment), nil
}
