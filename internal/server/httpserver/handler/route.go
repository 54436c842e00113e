package handler

import (
	"context"

	"github.com/yndnr/statichost-go/internal/core/routing"
)

type routeInfoKey struct{}

// RouteInfo records how a request was dispatched, for access logs and
// metrics that run after the handler returns.
type RouteInfo struct {
	Rule    string
	Outcome routing.OutcomeKind
	Target  string
}

// WithRouteInfo returns a context carrying a fresh RouteInfo.
func WithRouteInfo(ctx context.Context) (context.Context, *RouteInfo) {
	info := &RouteInfo{}
	return context.WithValue(ctx, routeInfoKey{}, info), info
}

// RouteInfoFrom returns the RouteInfo in ctx. Without one it returns a
// detached value so callers may write to it unconditionally.
func RouteInfoFrom(ctx context.Context) *RouteInfo {
	if info, ok := ctx.Value(routeInfoKey{}).(*RouteInfo); ok {
		return info
	}
	return &RouteInfo{}
}
