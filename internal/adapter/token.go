package adapter

import (
	"context"
	"strings"
)

// StaticToken is a [TokenSource] returning a fixed token. An empty token
// means requests go out without an Authorization header.
type StaticToken string

// Token implements [TokenSource].
func (s StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

func bearer(ctx context.Context, src TokenSource) (string, error) {
	if src == nil {
		return "", nil
	}
	token, err := src.Token(ctx)
	if err != nil || token == "" {
		return "", err
	}
	return "Bearer " + token, nil
}
