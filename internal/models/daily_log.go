package models

import "time"

// CheckItem: günlük kontrol listesindeki tek satır (DailyLog içinde saklanır)
type CheckItem struct {
	ID        string     `json:"id" yaml:"id"`
	Label     string     `json:"label" yaml:"label"`
	Category  Category   `json:"category" yaml:"category"`
	Completed bool       `json:"completed" yaml:"-"`
	Value     string     `json:"value,omitempty" yaml:"-"` // sıcaklık okumaları için serbest metin
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"-"`
}

// DailyLog: bir günün HACCP kontrol listesi. Tarih başına en fazla bir kayıt.
type DailyLog struct {
	ID        string      `json:"id"`
	Date      string      `json:"date"` // "2006-01-02"
	IsLocked  bool        `json:"isLocked"`
	Signature string      `json:"signature,omitempty"`
	Items     []CheckItem `json:"items"`
}

func (l DailyLog) CompletedCount() int {
	n := 0
	for _, it := range l.Items {
		if it.Completed {
			n++
		}
	}
	return n
}

// DailyLogRow: uzak tablodaki satır; log'un tamamı jsonb olarak tutulur
type DailyLogRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	Date      string `gorm:"size:10;uniqueIndex;not null"`
	Data      string `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DailyLogRow) TableName() string { return "haccp_logs" }
