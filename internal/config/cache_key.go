package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// AttemptStartKey returns the cache key for an attempt's start timestamp.
func (r *CacheKeyStruct) AttemptStartKey(quizID string, studentID int) string {
	return fmt.Sprintf("student:%d:quiz:%s:attempt_start", studentID, quizID)
}

// AttemptCompletedKey returns the cache key flagging an attempt as completed.
func (r *CacheKeyStruct) AttemptCompletedKey(quizID string, studentID int) string {
	return fmt.Sprintf("student:%d:quiz:%s:completed", studentID, quizID)
}

// StudentAnswersKey returns the cache key for a student's buffered answers.
func (r *CacheKeyStruct) StudentAnswersKey(quizID string, studentID int) string {
	return fmt.Sprintf("student:%d:quiz:%s:answers", studentID, quizID)
}

// StudentQuestionOrderKey returns the cache key for a student's shuffled question order.
func (r *CacheKeyStruct) StudentQuestionOrderKey(quizID string, studentID int) string {
	return fmt.Sprintf("student:%d:quiz:%s:question_order", studentID, quizID)
}

// QuizPaperKey returns the cache key for a quiz's student-facing paper.
func (r *CacheKeyStruct) QuizPaperKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:paper", quizID)
}

// QuizDurationKey returns the cache key for a quiz's duration.
func (r *CacheKeyStruct) QuizDurationKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:duration", quizID)
}

var CacheKey = NewCacheKeyStruct()
