package service

import "errors"

// Caller-visible attempt lifecycle outcomes. Everything else that
// escapes the services is a store/infrastructure error and should be
// retried by the caller with backoff rather than mapped to one of
// these.
var (
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuizNotPublished     = errors.New("quiz is not published")
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrNotOwner             = errors.New("attempt belongs to another user")
	ErrAlreadySubmitted     = errors.New("attempt already submitted")
	ErrAttemptExpired       = errors.New("attempt time limit exceeded")
	ErrQuestionNotFound     = errors.New("question not found")
)
