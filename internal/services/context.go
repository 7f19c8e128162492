package services

import "context"

type contextKey string

const (
	interviewIDKey contextKey = "interview_id"
	requestIDKey   contextKey = "request_id"
)

// WithInterviewID annotates context with the server-issued interview identifier.
func WithInterviewID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, interviewIDKey, id)
}

// InterviewIDFromContext returns the interview identifier if present.
func InterviewIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(interviewIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
