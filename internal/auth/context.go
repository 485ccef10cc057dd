package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxSubject ctxKey = iota
	ctxAuthorities
)

func WithIdentity(ctx context.Context, subject string, authorities []string) context.Context {
	ctx = context.WithValue(ctx, ctxSubject, subject)
	ctx = context.WithValue(ctx, ctxAuthorities, authorities)
	return ctx
}

func Subject(ctx context.Context) (string, error) {
	v := ctx.Value(ctxSubject)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("subject not in context")
}

func Authorities(ctx context.Context) ([]string, error) {
	v := ctx.Value(ctxAuthorities)
	if a, ok := v.([]string); ok {
		return a, nil
	}
	return nil, errors.New("authorities not in context")
}
