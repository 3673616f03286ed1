package repository

import "gorm.io/gorm"

// AutoMigrate creates/updates every table this package owns. SQLite dev and
// test databases rely on this; production schemas can be managed externally.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&repairerProfileModel{},
		&requestModel{},
		&conversationModel{},
		&messageModel{},
		&notificationModel{},
		&settlementModel{},
		&verificationCodeModel{},
	)
}
