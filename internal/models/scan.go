package models

import "time"

// ScanRecord is an append-only identity confirmation: scanner read the QR code
// of scanned at ScannedAt. Repeated scans of the same pair each add a row.
type ScanRecord struct {
	ID        string    `json:"id"`
	ScannerID string    `json:"scanner_id"`
	ScannedID string    `json:"scanned_id"`
	ScannedAt time.Time `json:"scanned_at"`
}

type ScanView struct {
	ScanRecord
	Direction string          `json:"direction"`
	Account   *AccountProfile `json:"account"`
}
