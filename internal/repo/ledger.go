package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/comic_reader/internal/models"
)

// Ledger is the revocation list keyed by jti.
type Ledger interface {
	Exists(ctx context.Context, jti string) (bool, error)
	// Save reports inserted=false when the jti was already on the list.
	Save(ctx context.Context, jti string, expiresAt time.Time) (inserted bool, err error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormLedger struct {
	DB *gorm.DB
}

func (l *GormLedger) Exists(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := l.DB.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save is idempotent: concurrent writers of the same jti end with exactly one
// row, and only the writer that created it sees inserted=true.
func (l *GormLedger) Save(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	row := models.RevokedToken{JTI: jti, ExpiresAt: expiresAt.UTC()}
	res := l.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (l *GormLedger) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := l.DB.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}
