package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// initDataMaxAge bounds how old a Mini App login may be
const initDataMaxAge = 24 * time.Hour

var errUserNotAllowed = errors.New("user not allowed")

// initDataValidator checks Telegram Mini App initData signatures
type initDataValidator struct {
	secret  []byte
	allowed map[int64]bool
	now     func() time.Time
}

func newInitDataValidator(botToken string, allowedUserIDs []int64) *initDataValidator {
	// Telegram derives the key as HMAC-SHA256("WebAppData", token)
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))

	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &initDataValidator{secret: mac.Sum(nil), allowed: allowed, now: time.Now}
}

// validate returns the user id carried by initData
func (v *initDataValidator) validate(initData string) (int64, error) {
	if initData == "" {
		return 0, errors.New("missing initData")
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, errors.New("invalid initData format")
	}

	hash := values.Get("hash")
	if hash == "" {
		return 0, errors.New("missing hash in initData")
	}
	values.Del("hash")

	if !hmac.Equal([]byte(v.sign(values)), []byte(hash)) {
		return 0, errors.New("invalid hash")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return 0, errors.New("missing auth_date")
	}
	if v.now().Sub(time.Unix(authDate, 0)) > initDataMaxAge {
		return 0, errors.New("initData is too old")
	}

	var user struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return 0, errors.New("invalid user data")
	}
	if !v.allowed[user.ID] {
		return 0, errUserNotAllowed
	}
	return user.ID, nil
}

// sign computes the hex HMAC over the sorted key=value data-check-string
func (v *initDataValidator) sign(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(values.Get(k))
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
