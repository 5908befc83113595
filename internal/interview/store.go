// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interview

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/rapidaai/interview/pkg/commons"
)

// Session status constants.
const (
	StatusActive    = "active"    // Interview in progress
	StatusCompleted = "completed" // All questions answered
)

// SessionRecord is one persisted interview session. Rows are never deleted
// during the lifecycle; a finished interview stays readable so its chat log
// and report can be reopened after a restart.
type SessionRecord struct {
	Id            uint64    `json:"id" gorm:"primaryKey;autoIncrement;<-:create"`
	SessionID     string    `json:"sessionId" gorm:"column:session_id;type:varchar(36);not null;uniqueIndex"`
	Status        string    `json:"status" gorm:"column:status;type:varchar(20);not null;default:active"`
	JobPosition   string    `json:"jobPosition" gorm:"column:job_position;type:varchar(200);not null;default:''"`
	QuestionCount int       `json:"questionCount" gorm:"column:question_count;not null;default:0"`
	CreatedDate   time.Time `json:"createdDate" gorm:"column:created_date;not null;<-:create"`
	UpdatedDate   time.Time `json:"updatedDate" gorm:"column:updated_date;default:null"`
}

func (SessionRecord) TableName() string {
	return "interview_sessions"
}

func (sr *SessionRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if sr.CreatedDate.IsZero() {
		sr.CreatedDate = time.Now()
	}
	return nil
}

// MessageRecord is one persisted chat turn.
type MessageRecord struct {
	Id          uint64    `json:"id" gorm:"primaryKey;autoIncrement;<-:create"`
	TurnID      string    `json:"turnId" gorm:"column:turn_id;type:varchar(36);not null;uniqueIndex"`
	SessionID   string    `json:"sessionId" gorm:"column:session_id;type:varchar(36);not null;index"`
	Ordinal     int       `json:"ordinal" gorm:"column:ordinal;not null"`
	Kind        string    `json:"kind" gorm:"column:kind;type:varchar(20);not null"`
	Text        string    `json:"text" gorm:"column:text;type:text;not null;default:''"`
	CreatedDate time.Time `json:"createdDate" gorm:"column:created_date;not null;<-:create"`
}

func (MessageRecord) TableName() string {
	return "interview_messages"
}

func (mr *MessageRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if mr.CreatedDate.IsZero() {
		mr.CreatedDate = time.Now()
	}
	return nil
}

// Store provides operations to save and retrieve interview sessions from
// the local sqlite database.
type Store interface {
	// Save stores a session with a generated sessionId (UUID) when none
	// is set. Returns the sessionId.
	Save(ctx context.Context, sr *SessionRecord) (string, error)

	// Get retrieves a session by sessionId regardless of its status.
	// Completed sessions stay readable for the lifetime of the database.
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)

	// AppendMessage stores one chat turn with a generated turnId (UUID)
	// when none is set.
	AppendMessage(ctx context.Context, mr *MessageRecord) error

	// Messages retrieves the chat log of a session in ordinal order.
	Messages(ctx context.Context, sessionID string) ([]MessageRecord, error)

	// Complete marks a session as completed. The row remains in the
	// database so the finished interview can be reopened.
	Complete(ctx context.Context, sessionID string) error
}

type sqliteStore struct {
	db     *gorm.DB
	logger commons.Logger
}

// NewStore opens (or creates) the sqlite database at path and migrates the
// session and message tables.
func NewStore(logger commons.Logger, path string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store at %s: %w", path, err)
	}
	if err := db.AutoMigrate(&SessionRecord{}, &MessageRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session store: %w", err)
	}
	return &sqliteStore{db: db, logger: logger}, nil
}

func (s *sqliteStore) Save(ctx context.Context, sr *SessionRecord) (string, error) {
	if sr.SessionID == "" {
		sr.SessionID = uuid.New().String()
	}
	if sr.Status == "" {
		sr.Status = StatusActive
	}

	if err := s.db.WithContext(ctx).Create(sr).Error; err != nil {
		return "", fmt.Errorf("failed to save interview session %s: %w", sr.SessionID, err)
	}

	s.logger.Infof("saved interview session: sessionId=%s, position=%s, questions=%d",
		sr.SessionID, sr.JobPosition, sr.QuestionCount)
	return sr.SessionID, nil
}

func (s *sqliteStore) Get(ctx context.Context, sessionID string) (*SessionRecord, error) {
	var sr SessionRecord
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&sr).Error; err != nil {
		return nil, fmt.Errorf("interview session not found: %s: %w", sessionID, err)
	}

	s.logger.Debugf("resolved interview session: sessionId=%s, status=%s", sr.SessionID, sr.Status)
	return &sr, nil
}

func (s *sqliteStore) AppendMessage(ctx context.Context, mr *MessageRecord) error {
	if mr.TurnID == "" {
		mr.TurnID = uuid.New().String()
	}

	if err := s.db.WithContext(ctx).Create(mr).Error; err != nil {
		return fmt.Errorf("failed to append message to session %s: %w", mr.SessionID, err)
	}

	s.logger.Debugf("appended chat turn: sessionId=%s, ordinal=%d, kind=%s",
		mr.SessionID, mr.Ordinal, mr.Kind)
	return nil
}

func (s *sqliteStore) Messages(ctx context.Context, sessionID string) ([]MessageRecord, error) {
	var messages []MessageRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("ordinal asc, id asc").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load chat log for session %s: %w", sessionID, err)
	}
	return messages, nil
}

func (s *sqliteStore) Complete(ctx context.Context, sessionID string) error {
	result := s.db.WithContext(ctx).Model(&SessionRecord{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":       StatusCompleted,
			"updated_date": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to complete interview session %s: %w", sessionID, result.Error)
	}

	s.logger.Debugf("completed interview session: sessionId=%s", sessionID)
	return nil
}
