package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-token"

// signedInitData builds initData the way Telegram signs it
func signedInitData(v *initDataValidator, userID int64, authDate time.Time) string {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`,"first_name":"Ada"}`)
	values.Set("hash", v.sign(values))
	return values.Encode()
}

func TestInitDataValidator(t *testing.T) {
	v := newInitDataValidator(testBotToken, []int64{42})
	v.now = func() time.Time { return clock }

	t.Run("valid", func(t *testing.T) {
		id, err := v.validate(signedInitData(v, 42, clock.Add(-time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("user not allowed", func(t *testing.T) {
		_, err := v.validate(signedInitData(v, 7, clock.Add(-time.Hour)))
		assert.ErrorIs(t, err, errUserNotAllowed)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := v.validate(signedInitData(v, 42, clock.Add(-25*time.Hour)))
		assert.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		data := signedInitData(v, 42, clock.Add(-time.Hour))
		values, err := url.ParseQuery(data)
		require.NoError(t, err)
		values.Set("user", `{"id":43}`)
		_, err = v.validate(values.Encode())
		assert.Error(t, err)
	})

	t.Run("signed with another token", func(t *testing.T) {
		other := newInitDataValidator("999:OTHER", []int64{42})
		_, err := v.validate(signedInitData(other, 42, clock.Add(-time.Hour)))
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := v.validate("")
		assert.Error(t, err)
	})
}

func TestServer_RequireAuth(t *testing.T) {
	mux, s := newTestMux(&fakeSource{}, Options{RequireAuth: true, BotToken: testBotToken, AllowedUserIDs: []int64{42}})
	s.auth.now = func() time.Time { return clock }

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/reports/trend", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer abc"))
	assert.Equal(t, http.StatusUnauthorized, call("tma "+signedInitData(s.auth, 7, clock)))
	assert.Equal(t, http.StatusOK, call("tma "+signedInitData(s.auth, 42, clock)))

	// Health stays public
	assert.Equal(t, http.StatusOK, get(mux, "/health").Code)
}
