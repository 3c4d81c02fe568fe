package deletion

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepjoy/account-service/internal/identity"
)

func TestNewService_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	v, d := newFakes()
	_, err := NewService(nil, d)
	assert.Error(t, err)
	_, err = NewService(v, nil)
	assert.Error(t, err)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		auth          string
		userID        string
		verifierErr   error
		deleterErr    error
		wantKind      Kind
		wantMessage   string
		wantDetail    string
		wantVerifies  int
		wantDeletions int
	}{
		{
			name: "own account", auth: "Bearer T1", userID: "u1",
			wantKind: KindSuccess, wantMessage: MsgDeleted, wantVerifies: 1, wantDeletions: 1,
		},
		{
			name: "missing user id", auth: "Bearer T1", userID: "",
			wantKind: KindValidation, wantMessage: MsgUserIDRequired,
		},
		{
			name: "missing user id without header", auth: "", userID: "",
			wantKind: KindValidation, wantMessage: MsgUserIDRequired,
		},
		{
			name: "missing header", auth: "", userID: "u1",
			wantKind: KindAuthentication, wantMessage: MsgMissingAuthHeader,
		},
		{
			name: "blank header", auth: "   ", userID: "u1",
			wantKind: KindAuthentication, wantMessage: MsgMissingAuthHeader,
		},
		{
			name: "not a bearer header", auth: "Basic dTE6cHc=", userID: "u1",
			wantKind: KindAuthentication, wantMessage: MsgInvalidToken,
		},
		{
			name: "rejected token", auth: "Bearer forged", userID: "u1",
			wantKind: KindAuthentication, wantMessage: MsgInvalidToken, wantVerifies: 1,
		},
		{
			name: "principal without id", auth: "Bearer TX", userID: "u1",
			wantKind: KindAuthentication, wantMessage: MsgInvalidToken, wantVerifies: 1,
		},
		{
			name: "other user's account", auth: "Bearer T1", userID: "u2",
			wantKind: KindAuthorization, wantMessage: MsgCrossAccount, wantVerifies: 1,
		},
		{
			name: "verifier unreachable", auth: "Bearer T1", userID: "u1", verifierErr: errors.New("dial tcp: connection refused"),
			wantKind: KindInternal, wantMessage: MsgInternal, wantDetail: DetailIdentityUnavail, wantVerifies: 1,
		},
		{
			name: "store refuses delete", auth: "Bearer T1", userID: "u1",
			deleterErr: &identity.RejectedError{Op: "delete user", Status: 404, Detail: "User not found"},
			wantKind:   KindDeletion, wantMessage: MsgDeleteFailed, wantDetail: "User not found", wantVerifies: 1, wantDeletions: 1,
		},
		{
			name: "store unreachable on delete", auth: "Bearer T1", userID: "u1", deleterErr: context.DeadlineExceeded,
			wantKind: KindInternal, wantMessage: MsgInternal, wantDetail: DetailIdentityUnavail, wantVerifies: 1, wantDeletions: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, d := newFakes()
			v.err = tt.verifierErr
			d.err = tt.deleterErr
			svc, err := NewService(v, d)
			require.NoError(t, err)

			res := svc.Delete(context.Background(), tt.auth, Request{UserID: tt.userID})

			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Equal(t, tt.wantDetail, res.Detail)
			assert.Equal(t, tt.wantVerifies, v.Calls(), "verifier calls")
			assert.Equal(t, tt.wantDeletions, d.Calls(), "deleter calls")
		})
	}
}

func TestService_DeletesRequestedAccountOnly(t *testing.T) {
	t.Parallel()

	v, d := newFakes()
	svc, err := NewService(v, d)
	require.NoError(t, err)

	res := svc.Delete(context.Background(), "Bearer T2", Request{UserID: "u2"})
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, []string{"u2"}, d.ids)
}

func TestService_DoesNotLogCredentials(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	v, d := newFakes()
	v.tokens["tok-should-not-leak"] = &identity.Principal{ID: "u1"}
	d.err = &identity.RejectedError{Op: "delete user", Status: 500, Detail: "database error"}
	svc, err := NewService(v, d, WithLogger(logger))
	require.NoError(t, err)

	svc.Delete(context.Background(), "Bearer tok-should-not-leak", Request{UserID: "u1"})
	svc.Delete(context.Background(), "Bearer tok-should-not-leak", Request{UserID: "u2"})

	out := buf.String()
	assert.Contains(t, out, "deleting user account")
	assert.Contains(t, out, "cross-account deletion refused")
	assert.NotContains(t, out, "tok-should-not-leak")
}

func TestService_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	v, d := newFakes()
	svc, err := NewService(v, d, WithMetrics(metrics))
	require.NoError(t, err)

	svc.Delete(context.Background(), "Bearer T1", Request{UserID: "u1"})
	svc.Delete(context.Background(), "Bearer T1", Request{UserID: "u2"})
	svc.Delete(context.Background(), "", Request{})

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.outcomes.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.outcomes.WithLabelValues("authorization_error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.outcomes.WithLabelValues("validation_error")), 0)

	expected := `
# HELP keepjoy_account_deletion_requests_total Account deletion requests by outcome.
# TYPE keepjoy_account_deletion_requests_total counter
keepjoy_account_deletion_requests_total{outcome="authorization_error"} 1
keepjoy_account_deletion_requests_total{outcome="success"} 1
keepjoy_account_deletion_requests_total{outcome="validation_error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "keepjoy_account_deletion_requests_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.calls), "verify and delete series")
}

func TestKindStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusOK, KindSuccess.Status())
	assert.Equal(t, http.StatusBadRequest, KindValidation.Status())
	assert.Equal(t, http.StatusUnauthorized, KindAuthentication.Status())
	assert.Equal(t, http.StatusForbidden, KindAuthorization.Status())
	assert.Equal(t, http.StatusInternalServerError, KindDeletion.Status())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.Status())
}
