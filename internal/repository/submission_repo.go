package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/nilai-go-api/internal/models"
)

// SubmissionRepository defines data operations for scanned submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	// SetGradingStatus performs a compare-and-swap on the grading status so a
	// concurrent grading trigger observes a consistent snapshot. It reports
	// whether the transition was applied.
	SetGradingStatus(ctx context.Context, id uint, from, to models.TaskStatus) (bool, error)
	// ReplaceAnswers removes any answer records from a previous grading run and
	// stores the new batch in one transaction.
	ReplaceAnswers(ctx context.Context, submissionID uint, answers []models.AnswerRecord) error
	ListAnswers(ctx context.Context, submissionID uint) ([]models.AnswerRecord, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	// Answer records are owned by ReplaceAnswers; saving the association here
	// would re-insert rows a replace just deleted.
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Preload("Answers").
		First(&submission, id).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) SetGradingStatus(ctx context.Context, id uint, from, to models.TaskStatus) (bool, error) {
	if !validGradingTransition(from, to) {
		return false, nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND grading_status = ?", id, from).
		Update("grading_status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// validGradingTransition extends the base lifecycle with the re-grading
// reopen: a settled grading axis may move back to processing for a fresh run.
func validGradingTransition(from, to models.TaskStatus) bool {
	if from.CanTransition(to) {
		return true
	}
	return from.IsTerminal() && to == models.TaskStatusProcessing
}

func (r *submissionRepository) ReplaceAnswers(ctx context.Context, submissionID uint, answers []models.AnswerRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", submissionID).Delete(&models.AnswerRecord{}).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		return tx.Create(&answers).Error
	})
}

func (r *submissionRepository) ListAnswers(ctx context.Context, submissionID uint) ([]models.AnswerRecord, error) {
	var answers []models.AnswerRecord
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}
