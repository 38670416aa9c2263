package domain

import "time"

// RecoveryRecord is the last awarded prize for a device. One slot per device,
// overwritten on every successful claim and never cleared automatically.
type RecoveryRecord struct {
	DeviceID  string    `json:"-" dynamodbav:"device_id"`
	PrizeName string    `json:"prizeName" dynamodbav:"prize_name"`
	PhotoURL  string    `json:"photoUrl,omitempty" dynamodbav:"photo_url,omitempty"`
	UpdatedAt time.Time `json:"-" dynamodbav:"updated_at"`
}

// RecordFromResult builds the slot value for a claim result.
func RecordFromResult(r ClaimResult) RecoveryRecord {
	return RecoveryRecord{PrizeName: r.PrizeName, PhotoURL: r.PhotoURL}
}
