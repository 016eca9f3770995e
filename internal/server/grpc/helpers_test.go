package grpc

import (
	"context"
	"encoding/base64"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const (
	testAccessSecret  = "and0QWNjZXNzVG9rZW5qd3RBY2Nlc3NUb2tlbmp3dEFjY2Vzc1Rva2Vuand0QWNjZXNzVG9rZW5qd3RBY2Nlc3NUb2tlbg=="
	testRefreshSecret = "and0UmVmcmVzaFRva2Vuand0UmVmcmVzaFRva2Vuand0UmVmcmVzaFRva2Vuand0UmVmcmVzaFRva2Vuand0UmVmcmVzaFRva2Vu"
)

type mapResolver map[string]*models.User

func (m mapResolver) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type plainVerifier struct{}

func (plainVerifier) Verify(plain, hash string) bool { return plain == hash }

func bob() *models.User {
	return &models.User{
		ID:           "0",
		Username:     "Bob_Smith",
		PasswordHash: "secret",
		Firstname:    "Bob",
		Lastname:     "Smith",
		Roles:        []string{"user", "admin"},
	}
}

func newTestSigner(t *testing.T) *auth.Signer {
	t.Helper()
	access, err := base64.StdEncoding.DecodeString(testAccessSecret)
	require.NoError(t, err)
	refresh, err := base64.StdEncoding.DecodeString(testRefreshSecret)
	require.NoError(t, err)
	s, err := auth.NewSigner(access, refresh, auth.DefaultAccessTTL, auth.DefaultRefreshTTL)
	require.NoError(t, err)
	return s
}

func newTestServer(t *testing.T, m repomanager.RepositoryManager) *GRPCServer {
	t.Helper()
	signer := newTestSigner(t)
	svc := services.NewAuthService(m, mapResolver{"Bob_Smith": bob()}, plainVerifier{}, signer, logging.Nop())
	return NewGRPCServer("bufnet", logging.Nop(), svc, signer)
}

// startBufconn serves srv over an in-memory listener and returns a client
// connected to it.
func startBufconn(t *testing.T, srv *GRPCServer) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	return NewClient(conn)
}
