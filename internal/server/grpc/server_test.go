package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/creditdesk/pkg/errorbank"
)

func TestUnaryErrorsTranslateKinds(t *testing.T) {
	interceptor := unaryErrors(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/creditdesk.Review/MarkAsPaid"}

	cases := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{errorbank.Validation("order already paid"), codes.InvalidArgument, "order already paid"},
		{errorbank.NotFound("account not found"), codes.NotFound, "account not found"},
		{errorbank.Network("i/o timeout"), codes.Unavailable, "i/o timeout"},
		{errors.New("pq: connection reset"), codes.Internal, "internal error"},
		{status.Error(codes.PermissionDenied, "nope"), codes.PermissionDenied, "nope"},
	}
	for _, tc := range cases {
		_, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
			return nil, tc.err
		})
		st, ok := status.FromError(err)
		assert.True(t, ok)
		assert.Equal(t, tc.code, st.Code())
		assert.Equal(t, tc.msg, st.Message())
	}
}

func TestUnaryErrorsPassThroughSuccess(t *testing.T) {
	interceptor := unaryErrors(zaptest.NewLogger(t))
	resp, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{}, func(_ context.Context, req any) (any, error) {
		return req, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "req", resp)
}
