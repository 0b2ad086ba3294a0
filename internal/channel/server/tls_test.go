package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/densecode/internal/channel"
	"github.com/danmuck/densecode/internal/protocol"
	"github.com/danmuck/densecode/internal/protocol/session"
	"github.com/danmuck/densecode/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSelfSigned writes a self-signed loopback certificate usable for both
// server and client auth. The certificate file doubles as its own CA bundle.
func writeSelfSigned(t *testing.T, dir, name string) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback},
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, name+".pem")
	keyFile = filepath.Join(dir, name+".key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestMutualTLSRoundTrip(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	serverCert, serverKey := writeSelfSigned(t, dir, "channel")
	clientCert, clientKey := writeSelfSigned(t, dir, "link")

	transport := session.DefaultConfig()
	transport.SecurityMode = session.SecurityModeProduction
	transport.TLS = session.TLSConfig{
		Enabled:  true,
		Mutual:   true,
		CertFile: serverCert,
		KeyFile:  serverKey,
		CAFile:   clientCert,
	}
	s := New("chan-tls", "127.0.0.1:0", channel.NewIdeal(), nil, WithTransport(transport))
	httpSrv, err := s.HTTPServer()
	require.NoError(t, err)
	require.NotNil(t, httpSrv.TLSConfig)
	assert.Equal(t, tls.RequireAndVerifyClientCert, httpSrv.TLSConfig.ClientAuth)

	ts := httptest.NewUnstartedServer(httpSrv.Handler)
	ts.TLS = httpSrv.TLSConfig
	ts.StartTLS()
	defer ts.Close()

	clientCfg := fastSession()
	clientCfg.SecurityMode = session.SecurityModeProduction
	clientCfg.TLS = session.TLSConfig{
		Enabled:  true,
		Mutual:   true,
		CertFile: clientCert,
		KeyFile:  clientKey,
		CAFile:   serverCert,
	}
	remote := newRemote(t, ts.URL, channel.WithSession(clientCfg))
	out, err := remote.Transmit(context.Background(), channel.Request{Symbols: symbols, Trials: 1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "110010", out[0].String())

	anonCfg := fastSession()
	anonCfg.TLS = session.TLSConfig{Enabled: true, CAFile: serverCert}
	anon := newRemote(t, ts.URL, channel.WithSession(anonCfg))
	_, err = anon.Transmit(context.Background(), channel.Request{Symbols: symbols, Trials: 1})
	require.ErrorIs(t, err, protocol.ErrChannelUnavailable)
}

func TestServeRefusesPlainTransportInProduction(t *testing.T) {
	testlog.Start(t)
	transport := session.DefaultConfig()
	transport.SecurityMode = session.SecurityModeProduction
	s := New("chan-a", "127.0.0.1:0", channel.NewIdeal(), nil, WithTransport(transport))
	require.ErrorIs(t, s.Serve(), session.ErrTLSRequired)
}

func TestHTTPServerIsPlainByDefault(t *testing.T) {
	testlog.Start(t)
	s := New("chan-a", "127.0.0.1:0", channel.NewIdeal(), nil)
	httpSrv, err := s.HTTPServer()
	require.NoError(t, err)
	assert.Nil(t, httpSrv.TLSConfig)
	assert.Equal(t, "127.0.0.1:0", httpSrv.Addr)
}
