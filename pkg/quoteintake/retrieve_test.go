package quoteintake

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKey = "quotes/2024-05-01/ab12cd34_roof.jpg"

func signedParams(t *testing.T, svc *Service, key string, exp int64) (string, string) {
	t.Helper()
	link, err := svc.Signer().SignKey("https://example.com", key, exp)
	require.NoError(t, err)
	return strconv.FormatInt(link.Expires, 10), link.Signature
}

func TestRetrieve_Success(t *testing.T) {
	svc, deps := newTestService(fullSettings())
	deps.store.On("Get", mock.Anything, testKey).Return(&Object{
		Key:         testKey,
		ContentType: "image/jpeg",
		Size:        4,
		Body:        io.NopCloser(strings.NewReader("data")),
	}, nil)

	exp, sig := signedParams(t, svc, testKey, testNow.Unix()+60)
	obj, err := svc.Retrieve(context.Background(), "/"+testKey, exp, sig)

	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, "image/jpeg", obj.ContentType)
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "data", string(body))
}

func TestRetrieve_Rejections(t *testing.T) {
	svc, deps := newTestService(fullSettings())
	exp, sig := signedParams(t, svc, testKey, testNow.Unix()+60)
	pastExp, pastSig := signedParams(t, svc, testKey, testNow.Unix()-1)
	tampered := "A" + sig[1:]
	if sig[0] == 'A' {
		tampered = "B" + sig[1:]
	}

	tests := []struct {
		name     string
		key      string
		exp      string
		sig      string
		wantKind Kind
	}{
		{"empty key", "", exp, sig, KindNotFound},
		{"slash only", "/", exp, sig, KindNotFound},
		{"missing sig", testKey, exp, "", KindForbidden},
		{"missing exp", testKey, "", sig, KindForbidden},
		{"malformed exp", testKey, "12abc", sig, KindForbidden},
		{"negative exp", testKey, "-5", sig, KindForbidden},
		{"expired one second ago", testKey, pastExp, pastSig, KindForbidden},
		{"expires now", testKey, strconv.FormatInt(testNow.Unix(), 10), sig, KindForbidden},
		{"signature for other key", "quotes/2024-05-01/ab12cd34_other.jpg", exp, sig, KindForbidden},
		{"tampered signature", testKey, exp, tampered, KindForbidden},
		{"extended expiry", testKey, strconv.FormatInt(testNow.Unix()+3600, 10), sig, KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Retrieve(context.Background(), tt.key, tt.exp, tt.sig)

			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}

	deps.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRetrieve_SameResponseForEveryBadLink(t *testing.T) {
	svc, _ := newTestService(fullSettings())
	exp, sig := signedParams(t, svc, testKey, testNow.Unix()+60)

	_, forged := svc.Retrieve(context.Background(), testKey, exp, "x"+sig)
	_, expired := svc.Retrieve(context.Background(), testKey, "1", sig)

	assert.Equal(t, MessageOf(forged), MessageOf(expired))
	assert.Equal(t, MsgForbidden, MessageOf(forged))
}

func TestRetrieve_NoSecret(t *testing.T) {
	signing, _ := newTestService(fullSettings())
	exp, sig := signedParams(t, signing, testKey, testNow.Unix()+60)

	settings := fullSettings()
	settings.SigningSecret = ""
	svc, deps := newTestService(settings)

	_, err := svc.Retrieve(context.Background(), testKey, exp, sig)

	require.Error(t, err)
	assert.Equal(t, KindServerMisconfigured, KindOf(err))
	assert.Contains(t, deps.logs.String(), "variable="+SettingSigningSecret)
	deps.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRetrieve_ExpiredBeatsMissingSecret(t *testing.T) {
	settings := fullSettings()
	settings.SigningSecret = ""
	svc, _ := newTestService(settings)

	_, err := svc.Retrieve(context.Background(), testKey, strconv.FormatInt(testNow.Unix()-1, 10), "sig")

	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestRetrieve_NoStore(t *testing.T) {
	svc, deps := newTestService(fullSettings(), WithObjectStore(nil))
	exp, sig := signedParams(t, svc, testKey, testNow.Unix()+60)

	_, err := svc.Retrieve(context.Background(), testKey, exp, sig)

	assert.Equal(t, KindServerMisconfigured, KindOf(err))
	assert.Contains(t, deps.logs.String(), "variable="+SettingObjectStore)
}

func TestRetrieve_NotFound(t *testing.T) {
	svc, deps := newTestService(fullSettings())
	deps.store.On("Get", mock.Anything, testKey).Return(nil, ErrObjectNotFound)
	exp, sig := signedParams(t, svc, testKey, testNow.Unix()+60)

	_, err := svc.Retrieve(context.Background(), testKey, exp, sig)

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, MsgNotFound, MessageOf(err))
}

func TestRetrieve_StoreError(t *testing.T) {
	svc, deps := newTestService(fullSettings())
	deps.store.On("Get", mock.Anything, testKey).Return(nil, errors.New("timeout"))
	exp, sig := signedParams(t, svc, testKey, testNow.Unix()+60)

	_, err := svc.Retrieve(context.Background(), testKey, exp, sig)

	assert.Equal(t, KindServerError, KindOf(err))
	assert.Equal(t, MsgServerError, MessageOf(err))
}
