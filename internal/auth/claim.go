package auth

import "context"

// Claim is the identity asserted by a request after its session token was
// resolved server-side. The zero Claim means "no identity".
type Claim struct {
	AccountID int64
}

func (c Claim) Present() bool { return c.AccountID > 0 }

type claimKey struct{}

func WithClaim(ctx context.Context, c Claim) context.Context {
	return context.WithValue(ctx, claimKey{}, c)
}

func ClaimFrom(ctx context.Context) Claim {
	c, _ := ctx.Value(claimKey{}).(Claim)
	return c
}
